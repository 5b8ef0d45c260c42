package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/core/domain"
)

func TestMemoryApplyStockDelta(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item, err := store.CreateItem(ctx, domain.InventoryItem{Name: "Widget", StockLevel: 10})
	require.NoError(t, err)

	level, err := store.ApplyStockDelta(ctx, item.ID, -4, 10)
	require.NoError(t, err)
	assert.Equal(t, 6, level)

	// Stale expected value is rejected without a change.
	_, err = store.ApplyStockDelta(ctx, item.ID, -1, 10)
	assert.ErrorIs(t, err, domain.ErrStockConflict)

	// A delta below zero is rejected without a change.
	_, err = store.ApplyStockDelta(ctx, item.ID, -7, 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := store.Item(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.StockLevel)

	_, err = store.ApplyStockDelta(ctx, "missing", -1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryDeleteHeaderRemovesLines(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	order, err := store.CreateHeader(ctx, "ACME Corp", "user-1")
	require.NoError(t, err)
	_, err = store.CreateLine(ctx, order.ID, "item-1", 2, "Widget")
	require.NoError(t, err)

	require.NoError(t, store.DeleteHeader(ctx, order.ID))

	_, err = store.Order(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	lines, err := store.Lines(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMemoryLinesKeepInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	order, err := store.CreateHeader(ctx, "ACME Corp", "user-1")
	require.NoError(t, err)
	for _, name := range []string{"first", "second", "third"} {
		_, err = store.CreateLine(ctx, order.ID, "item-"+name, 1, name)
		require.NoError(t, err)
	}

	lines, err := store.Lines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "first", lines[0].ItemName)
	assert.Equal(t, "second", lines[1].ItemName)
	assert.Equal(t, "third", lines[2].ItemName)
}
