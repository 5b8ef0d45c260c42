package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

// MemoryStore is an in-memory implementation of the record-store ports. It
// backs `serve --dev` and the test suites. Deleting an order header removes
// its lines, mirroring the referential cleanup the MySQL schema provides.
//
// The Fail* fields inject failures at specific points of the order write
// sequence so that the compensation path can be exercised.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]domain.InventoryItem
	orders map[string]domain.Order
	lines  map[string][]domain.OrderLine
	users  map[string]domain.User

	// FailCreateHeader makes CreateHeader fail.
	FailCreateHeader bool
	// FailCreateLineOn makes the n-th CreateLine call fail (1-based).
	// Zero disables. Likewise for FailStockDeltaOn.
	FailCreateLineOn int
	FailStockDeltaOn int
	// FailDeleteHeader makes compensation itself fail.
	FailDeleteHeader bool

	createLineCalls int
	stockDeltaCalls int
}

var (
	_ port.InventoryRepository = (*MemoryStore)(nil)
	_ port.OrderRepository     = (*MemoryStore)(nil)
	_ port.UserRepository      = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]domain.InventoryItem),
		orders: make(map[string]domain.Order),
		lines:  make(map[string][]domain.OrderLine),
		users:  make(map[string]domain.User),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

type injectedFailure struct{ op string }

func (e *injectedFailure) Error() string { return e.op + ": injected store failure" }

// --- StockLedger / InventoryRepository ---

func (m *MemoryStore) Item(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (m *MemoryStore) ItemByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.Name == name {
			return &item, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryStore) ApplyStockDelta(ctx context.Context, itemID string, delta, expected int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stockDeltaCalls++
	if m.FailStockDeltaOn > 0 && m.stockDeltaCalls == m.FailStockDeltaOn {
		return 0, &injectedFailure{op: "apply stock delta"}
	}

	item, ok := m.items[itemID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if expected+delta < 0 {
		return 0, domain.ErrInsufficientStock
	}
	if item.StockLevel != expected {
		return 0, domain.ErrStockConflict
	}

	item.StockLevel += delta
	item.UpdatedAt = time.Now().UTC()
	m.items[itemID] = item
	return item.StockLevel, nil
}

func (m *MemoryStore) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.InventoryItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *MemoryStore) CreateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item.ID = uuid.NewString()
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	m.items[item.ID] = item
	return &item, nil
}

func (m *MemoryStore) UpdateItem(ctx context.Context, itemID string, changes port.ItemChanges) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if changes.Name != nil {
		item.Name = *changes.Name
	}
	if changes.Description != nil {
		item.Description = *changes.Description
	}
	if changes.StockLevel != nil {
		item.StockLevel = *changes.StockLevel
	}
	if changes.LowStockThreshold != nil {
		item.LowStockThreshold = *changes.LowStockThreshold
	}
	item.UpdatedAt = time.Now().UTC()
	m.items[itemID] = item
	return &item, nil
}

// --- OrderRepository ---

func (m *MemoryStore) CreateHeader(ctx context.Context, customerName, createdBy string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateHeader {
		return nil, &injectedFailure{op: "insert order"}
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:           uuid.NewString(),
		CustomerName: customerName,
		Status:       domain.OrderStatusPending,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.orders[order.ID] = order
	return &order, nil
}

func (m *MemoryStore) CreateLine(ctx context.Context, orderID, itemID string, quantity int, itemName string) (*domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createLineCalls++
	if m.FailCreateLineOn > 0 && m.createLineCalls == m.FailCreateLineOn {
		return nil, &injectedFailure{op: "insert order line"}
	}

	if _, ok := m.orders[orderID]; !ok {
		return nil, domain.ErrNotFound
	}
	line := domain.OrderLine{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		ItemID:   itemID,
		ItemName: itemName,
		Quantity: quantity,
	}
	m.lines[orderID] = append(m.lines[orderID], line)
	return &line, nil
}

func (m *MemoryStore) DeleteHeader(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeleteHeader {
		return &injectedFailure{op: "delete order"}
	}
	delete(m.orders, orderID)
	delete(m.lines, orderID)
	return nil
}

// OrderCount reports how many order headers exist. Test helper.
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MemoryStore) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

func (m *MemoryStore) Lines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]domain.OrderLine, len(m.lines[orderID]))
	copy(lines, m.lines[orderID])
	return lines, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = order
	return &order, nil
}

// --- UserRepository ---

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryStore) UserByID(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user
	return &user, nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, userID)
	return nil
}

func (m *MemoryStore) ActivateUser(ctx context.Context, userID string, profile port.UserProfile, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.FirstName = profile.FirstName
	u.LastName = profile.LastName
	u.PhoneNumber = profile.PhoneNumber
	u.EmergencyContactNumber = profile.EmergencyContactNumber
	u.PasswordHash = passwordHash
	u.Status = domain.UserStatusActive
	m.users[userID] = u
	return &u, nil
}
