package domain

import "time"

type InventoryItem struct {
	ID                string
	Name              string
	Description       string
	StockLevel        int
	LowStockThreshold int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LowStock reports whether the item has fallen to or below its threshold.
func (i InventoryItem) LowStock() bool {
	return i.StockLevel <= i.LowStockThreshold
}
