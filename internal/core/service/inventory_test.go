package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/adapter/storage"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

func TestInventoryCreate_RejectsDuplicateName(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInventory(store, nil)

	_, err := svc.Create(context.Background(), CreateItemInput{Name: "Widget", StockLevel: 3})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateItemInput{Name: "Widget", StockLevel: 10})
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestInventoryUpdate_PartialFieldsOnly(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInventory(store, nil)

	item, err := svc.Create(context.Background(), CreateItemInput{
		Name:              "Widget",
		Description:       "A widget",
		StockLevel:        3,
		LowStockThreshold: 1,
	})
	require.NoError(t, err)

	newStock := 42
	updated, err := svc.Update(context.Background(), item.ID, port.ItemChanges{StockLevel: &newStock})
	require.NoError(t, err)

	assert.Equal(t, 42, updated.StockLevel)
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, "A widget", updated.Description)
	assert.Equal(t, 1, updated.LowStockThreshold)
}

func TestInventoryUpdate_RenameConflicts(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInventory(store, nil)

	_, err := svc.Create(context.Background(), CreateItemInput{Name: "Widget"})
	require.NoError(t, err)
	gadget, err := svc.Create(context.Background(), CreateItemInput{Name: "Gadget"})
	require.NoError(t, err)

	taken := "Widget"
	_, err = svc.Update(context.Background(), gadget.ID, port.ItemChanges{Name: &taken})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	// Renaming to the item's own current name is fine.
	same := "Gadget"
	updated, err := svc.Update(context.Background(), gadget.ID, port.ItemChanges{Name: &same})
	require.NoError(t, err)
	assert.Equal(t, "Gadget", updated.Name)
}

func TestInventoryUpdate_NotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInventory(store, nil)

	name := "Anything"
	_, err := svc.Update(context.Background(), "missing", port.ItemChanges{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryList_SortedByName(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInventory(store, nil)

	for _, name := range []string{"Zebra", "Apple", "Mango"} {
		_, err := svc.Create(context.Background(), CreateItemInput{Name: name})
		require.NoError(t, err)
	}

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Apple", items[0].Name)
	assert.Equal(t, "Mango", items[1].Name)
	assert.Equal(t, "Zebra", items[2].Name)
}
