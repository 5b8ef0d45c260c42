package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/stockroom/internal/adapter/storage"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

var testActor = domain.Actor{UserID: "user-1", Role: domain.RoleSalesperson}

func addItem(t *testing.T, store *storage.MemoryStore, name string, stock int) *domain.InventoryItem {
	t.Helper()
	item, err := store.CreateItem(context.Background(), domain.InventoryItem{
		Name:       name,
		StockLevel: stock,
	})
	require.NoError(t, err)
	return item
}

func stockOf(t *testing.T, store *storage.MemoryStore, itemID string) int {
	t.Helper()
	item, err := store.Item(context.Background(), itemID)
	require.NoError(t, err)
	return item.StockLevel
}

func TestCreateOrder_Success(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	b := addItem(t, store, "Item B", 2)
	svc := NewFulfillment(store, store, nil, nil)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: a.ID, Quantity: 3},
			{ItemID: b.ID, Quantity: 1},
		},
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "ACME Corp", order.CustomerName)
	assert.Equal(t, testActor.UserID, order.CreatedBy)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Item A", order.Lines[0].ItemName)
	assert.Equal(t, 3, order.Lines[0].Quantity)
	assert.Equal(t, "Item B", order.Lines[1].ItemName)
	assert.Equal(t, 1, order.Lines[1].Quantity)

	assert.Equal(t, 2, stockOf(t, store, a.ID))
	assert.Equal(t, 1, stockOf(t, store, b.ID))
}

func TestCreateOrder_ReadBackMatchesSubmission(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 10)
	b := addItem(t, store, "Item B", 10)
	svc := NewFulfillment(store, store, nil, nil)

	created, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: b.ID, Quantity: 4},
			{ItemID: a.ID, Quantity: 2},
		},
	}, testActor)
	require.NoError(t, err)

	got, err := svc.Order(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	// Lines come back in the exact order submitted.
	assert.Equal(t, b.ID, got.Lines[0].ItemID)
	assert.Equal(t, 4, got.Lines[0].Quantity)
	assert.Equal(t, a.ID, got.Lines[1].ItemID)
	assert.Equal(t, 2, got.Lines[1].Quantity)
}

func TestCreateOrder_MissingItemRejectsWholeOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: a.ID, Quantity: 3},
			{ItemID: "no-such-item", Quantity: 10},
		},
	}, testActor)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	// Item A is satisfiable, so the rejection lists exactly the missing item.
	require.Len(t, stockErr.Problems, 1)
	assert.Equal(t, "no-such-item", stockErr.Problems[0].ItemID)
	assert.True(t, stockErr.Problems[0].Missing)

	assert.Equal(t, 5, stockOf(t, store, a.ID))
	assert.Equal(t, 0, store.OrderCount())
}

func TestCreateOrder_AggregatesEveryProblem(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 1)
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: a.ID, Quantity: 5},
			{ItemID: "ghost-1", Quantity: 1},
			{ItemID: "ghost-2", Quantity: 2},
		},
	}, testActor)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Problems, 3)
	assert.Equal(t, "Item A", stockErr.Problems[0].ItemName)
	assert.Equal(t, 5, stockErr.Problems[0].Requested)
	assert.Equal(t, 1, stockErr.Problems[0].Available)
	assert.True(t, stockErr.Problems[1].Missing)
	assert.True(t, stockErr.Problems[2].Missing)

	assert.Equal(t, 1, stockOf(t, store, a.ID))
}

func TestCreateOrder_RepeatedItemValidatedCumulatively(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	svc := NewFulfillment(store, store, nil, nil)

	// 3 + 2 fits exactly.
	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: a.ID, Quantity: 3},
			{ItemID: a.ID, Quantity: 2},
		},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, store, a.ID))

	// 3 + 3 does not: the second line sees only 2 remaining.
	b := addItem(t, store, "Item B", 5)
	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: b.ID, Quantity: 3},
			{ItemID: b.ID, Quantity: 3},
		},
	}, testActor)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Problems, 1)
	assert.Equal(t, 3, stockErr.Problems[0].Requested)
	assert.Equal(t, 2, stockErr.Problems[0].Available)
	assert.Equal(t, 5, stockOf(t, store, b.ID))
}

func TestCreateOrder_HeaderFailureNeedsNoCompensation(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	store.FailCreateHeader = true
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines:        []OrderLineInput{{ItemID: a.ID, Quantity: 1}},
	}, testActor)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, 5, stockOf(t, store, a.ID))
	assert.Equal(t, 0, store.OrderCount())
}

func TestCreateOrder_CompensatesWhenLineInsertFails(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	b := addItem(t, store, "Item B", 5)
	store.FailCreateLineOn = 2
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines: []OrderLineInput{
			{ItemID: a.ID, Quantity: 2},
			{ItemID: b.ID, Quantity: 1},
		},
	}, testActor)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)

	// The header was deleted; the order is not retrievable.
	assert.Equal(t, 0, store.OrderCount())
	// The first line's decrement is not reversed: best-effort compensation.
	assert.Equal(t, 3, stockOf(t, store, a.ID))
	assert.Equal(t, 5, stockOf(t, store, b.ID))
}

func TestCreateOrder_CompensatesWhenStockDeltaFails(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	store.FailStockDeltaOn = 1
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines:        []OrderLineInput{{ItemID: a.ID, Quantity: 2}},
	}, testActor)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, 0, store.OrderCount())
	assert.Equal(t, 5, stockOf(t, store, a.ID))
}

func TestCreateOrder_FailedCompensationStillReportsFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	store.FailStockDeltaOn = 1
	store.FailDeleteHeader = true
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines:        []OrderLineInput{{ItemID: a.ID, Quantity: 2}},
	}, testActor)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	// Compensation is best effort: the header survives when the delete
	// itself fails, but the caller is still told the operation failed.
	assert.Equal(t, 1, store.OrderCount())
}

// racingLedger simulates a concurrent order slipping between validation and
// commit: the first ApplyStockDelta call first moves the stock level out
// from under the caller.
type racingLedger struct {
	*storage.MemoryStore
	once sync.Once
}

func (r *racingLedger) ApplyStockDelta(ctx context.Context, itemID string, delta, expected int) (int, error) {
	r.once.Do(func() {
		stolen := expected - 1
		_, _ = r.MemoryStore.UpdateItem(ctx, itemID, port.ItemChanges{StockLevel: &stolen})
	})
	return r.MemoryStore.ApplyStockDelta(ctx, itemID, delta, expected)
}

func TestCreateOrder_ConcurrentStockChangeIsRejectedNotOversold(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	ledger := &racingLedger{MemoryStore: store}
	svc := NewFulfillment(ledger, store, nil, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines:        []OrderLineInput{{ItemID: a.ID, Quantity: 5}},
	}, testActor)

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorIs(t, err, domain.ErrStockConflict)
	assert.Equal(t, 0, store.OrderCount())
	// The concurrent writer's level stands; this order did not decrement.
	assert.Equal(t, 4, stockOf(t, store, a.ID))
}

type mapGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *mapGuard) Register(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func TestCreateOrder_DuplicateIdempotencyKey(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 10)
	svc := NewFulfillment(store, store, &mapGuard{}, nil)

	in := CreateOrderInput{
		CustomerName:   "ACME Corp",
		Lines:          []OrderLineInput{{ItemID: a.ID, Quantity: 1}},
		IdempotencyKey: "req-1",
	}

	_, err := svc.CreateOrder(context.Background(), in, testActor)
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), in, testActor)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	// Only the first submission decremented stock.
	assert.Equal(t, 9, stockOf(t, store, a.ID))
	assert.Equal(t, 1, store.OrderCount())
}

func TestOrder_LineNameIsSnapshotNotLiveName(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Original name", 5)
	svc := NewFulfillment(store, store, nil, nil)

	created, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines:        []OrderLineInput{{ItemID: a.ID, Quantity: 1}},
	}, testActor)
	require.NoError(t, err)

	renamed := "New name"
	_, err = store.UpdateItem(context.Background(), a.ID, port.ItemChanges{Name: &renamed})
	require.NoError(t, err)

	got, err := svc.Order(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Original name", got.Lines[0].ItemName)
}

func TestOrder_NotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.Order(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewFulfillment(store, store, nil, nil)

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusProcessing,
		domain.OrderStatusFulfilled,
	} {
		_, err := svc.UpdateStatus(context.Background(), "missing", status)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestUpdateStatus_AnyTargetAccepted(t *testing.T) {
	store := storage.NewMemoryStore()
	a := addItem(t, store, "Item A", 5)
	svc := NewFulfillment(store, store, nil, nil)

	created, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "ACME Corp",
		Lines:        []OrderLineInput{{ItemID: a.ID, Quantity: 1}},
	}, testActor)
	require.NoError(t, err)

	order, err := svc.UpdateStatus(context.Background(), created.ID, domain.OrderStatusFulfilled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFulfilled, order.Status)
	require.Len(t, order.Lines, 1)

	// No forward-only progression: moving back to pending is allowed.
	order, err = svc.UpdateStatus(context.Background(), created.ID, domain.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewFulfillment(store, store, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "any", domain.OrderStatus("shipped"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
