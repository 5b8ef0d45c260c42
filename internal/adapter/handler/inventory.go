package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/core/service"
	"github.com/stockroom/stockroom/internal/port"
)

type InventoryHandler struct {
	inventory *service.Inventory
}

func NewInventoryHandler(inventory *service.Inventory) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type inventoryItemResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	StockLevel        int       `json:"stock_level"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toItemResponse(item *domain.InventoryItem) inventoryItemResponse {
	return inventoryItemResponse{
		ID:                item.ID,
		Name:              item.Name,
		Description:       item.Description,
		StockLevel:        item.StockLevel,
		LowStockThreshold: item.LowStockThreshold,
		LowStock:          item.LowStock(),
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}

// List handles GET /inventory (any authenticated role).
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]inventoryItemResponse, len(items))
	for i := range items {
		out[i] = toItemResponse(&items[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type createItemRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	StockLevel        int    `json:"stock_level"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// Create handles POST /inventory (warehouse manager or admin).
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if len(req.Name) == 0 || len(req.Name) > 255 {
		writeError(w, http.StatusBadRequest, "invalid_name", "name must be 1-255 characters")
		return
	}
	if req.StockLevel < 0 || req.LowStockThreshold < 0 {
		writeError(w, http.StatusBadRequest, "invalid_stock", "stock_level and low_stock_threshold must be non-negative")
		return
	}

	item, err := h.inventory.Create(r.Context(), service.CreateItemInput{
		Name:              req.Name,
		Description:       req.Description,
		StockLevel:        req.StockLevel,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

type updateItemRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	StockLevel        *int    `json:"stock_level"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
}

// Update handles PUT /inventory/{itemID} (warehouse manager or admin).
// Absent fields are left untouched.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Name != nil && (len(*req.Name) == 0 || len(*req.Name) > 255) {
		writeError(w, http.StatusBadRequest, "invalid_name", "name must be 1-255 characters")
		return
	}
	if (req.StockLevel != nil && *req.StockLevel < 0) ||
		(req.LowStockThreshold != nil && *req.LowStockThreshold < 0) {
		writeError(w, http.StatusBadRequest, "invalid_stock", "stock_level and low_stock_threshold must be non-negative")
		return
	}

	item, err := h.inventory.Update(r.Context(), chi.URLParam(r, "itemID"), port.ItemChanges{
		Name:              req.Name,
		Description:       req.Description,
		StockLevel:        req.StockLevel,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}
