package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

// Inventory manages inventory items outside the order path. Stock mutations
// performed here are direct sets by warehouse staff; only the fulfillment
// orchestrator applies deltas.
type Inventory struct {
	items  port.InventoryRepository
	logger *zap.Logger
}

func NewInventory(items port.InventoryRepository, logger *zap.Logger) *Inventory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inventory{items: items, logger: logger}
}

func (s *Inventory) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.items.ListItems(ctx)
}

func (s *Inventory) Item(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	return s.items.Item(ctx, itemID)
}

type CreateItemInput struct {
	Name              string
	Description       string
	StockLevel        int
	LowStockThreshold int
}

// Create inserts a new inventory item. Fails with domain.ErrNameTaken when
// an item with the same name already exists.
func (s *Inventory) Create(ctx context.Context, in CreateItemInput) (*domain.InventoryItem, error) {
	_, err := s.items.ItemByName(ctx, in.Name)
	if err == nil {
		return nil, domain.ErrNameTaken
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check item name: %w", err)
	}

	item, err := s.items.CreateItem(ctx, domain.InventoryItem{
		Name:              in.Name,
		Description:       in.Description,
		StockLevel:        in.StockLevel,
		LowStockThreshold: in.LowStockThreshold,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory item created",
		zap.String("item_id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// Update applies the non-nil fields of changes. A rename is checked for
// uniqueness against every other item before the write.
func (s *Inventory) Update(ctx context.Context, itemID string, changes port.ItemChanges) (*domain.InventoryItem, error) {
	current, err := s.items.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil && *changes.Name != current.Name {
		other, err := s.items.ItemByName(ctx, *changes.Name)
		if err == nil && other.ID != itemID {
			return nil, domain.ErrNameTaken
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("check item name: %w", err)
		}
	}

	item, err := s.items.UpdateItem(ctx, itemID, changes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory item updated", zap.String("item_id", itemID))
	return item, nil
}
