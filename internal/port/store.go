package port

import (
	"context"

	"github.com/stockroom/stockroom/internal/core/domain"
)

// The store behind these ports is a keyed record store reached over the
// network. Calls are independent round-trips: there is no multi-statement
// transaction spanning them, so callers that need all-or-nothing semantics
// across collections must compensate by hand.

// StockLedger reads and adjusts stock levels for inventory items.
type StockLedger interface {
	// Item returns the current inventory record, or domain.ErrNotFound.
	Item(ctx context.Context, itemID string) (*domain.InventoryItem, error)

	// ApplyStockDelta adds delta to the item's stock level and returns the
	// new level. The update is a compare-and-set against expected, the
	// stock level the caller observed when it read the item: if the stored
	// level no longer matches, domain.ErrStockConflict is returned and
	// nothing changes. A delta that would drive stock below zero fails
	// with domain.ErrInsufficientStock and makes no change.
	ApplyStockDelta(ctx context.Context, itemID string, delta, expected int) (int, error)
}

// OrderRepository persists order headers and lines.
type OrderRepository interface {
	// CreateHeader inserts a new order with status pending.
	CreateHeader(ctx context.Context, customerName, createdBy string) (*domain.Order, error)

	// CreateLine inserts one order line. itemName is the denormalized
	// snapshot of the inventory item's name at creation time.
	CreateLine(ctx context.Context, orderID, itemID string, quantity int, itemName string) (*domain.OrderLine, error)

	// DeleteHeader removes an order header. Used only by the compensation
	// path; the store's referential cleanup is assumed to remove the
	// order's lines.
	DeleteHeader(ctx context.Context, orderID string) error

	// Order returns the order header without lines, or domain.ErrNotFound.
	Order(ctx context.Context, orderID string) (*domain.Order, error)

	// Lines returns the order's lines in insertion order.
	Lines(ctx context.Context, orderID string) ([]domain.OrderLine, error)

	// UpdateStatus sets the order's status and returns the updated header,
	// or domain.ErrNotFound.
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

// InventoryRepository manages inventory items outside the order path.
type InventoryRepository interface {
	StockLedger

	ListItems(ctx context.Context) ([]domain.InventoryItem, error)

	// ItemByName returns the item with the given name, or domain.ErrNotFound.
	ItemByName(ctx context.Context, name string) (*domain.InventoryItem, error)

	CreateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)

	// UpdateItem applies the non-nil fields of changes and returns the
	// updated item, or domain.ErrNotFound.
	UpdateItem(ctx context.Context, itemID string, changes ItemChanges) (*domain.InventoryItem, error)
}

// ItemChanges is a partial update: nil fields are left untouched.
type ItemChanges struct {
	Name              *string
	Description       *string
	StockLevel        *int
	LowStockThreshold *int
}

// UserRepository manages user accounts.
type UserRepository interface {
	// UserByEmail returns the user with the given email, or domain.ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*domain.User, error)

	UserByID(ctx context.Context, userID string) (*domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)

	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)

	// ActivateUser completes an invited account: stores the profile and
	// password hash and flips status to active.
	ActivateUser(ctx context.Context, userID string, profile UserProfile, passwordHash string) (*domain.User, error)

	// DeleteUser removes an account, or domain.ErrNotFound.
	DeleteUser(ctx context.Context, userID string) error
}

// UserProfile is the registration payload stored when an invited user
// completes their account.
type UserProfile struct {
	FirstName              string
	LastName               string
	PhoneNumber            string
	EmergencyContactNumber string
}
