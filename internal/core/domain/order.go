package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusFulfilled  OrderStatus = "fulfilled"
)

// Valid reports whether s is one of the recognised order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusFulfilled:
		return true
	}
	return false
}

type Order struct {
	ID           string
	CustomerName string
	Status       OrderStatus
	CreatedBy    string
	Lines        []OrderLine
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderLine is one (item, quantity) entry within an order. ItemName is a
// snapshot of the inventory item's name at creation time; it is never
// refreshed after the order commits.
type OrderLine struct {
	ID       string
	OrderID  string
	ItemID   string
	ItemName string
	Quantity int
}
