package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/core/service"
)

type OrdersHandler struct {
	fulfillment *service.Fulfillment
}

func NewOrdersHandler(fulfillment *service.Fulfillment) *OrdersHandler {
	return &OrdersHandler{fulfillment: fulfillment}
}

type orderItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Items        []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	ID           string              `json:"id"`
	CustomerName string              `json:"customer_name"`
	Status       string              `json:"status"`
	Items        []orderItemResponse `json:"items"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, len(order.Lines))
	for i, line := range order.Lines {
		items[i] = orderItemResponse{
			ID:       line.ID,
			ItemID:   line.ItemID,
			ItemName: line.ItemName,
			Quantity: line.Quantity,
		}
	}
	return orderResponse{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		Status:       string(order.Status),
		Items:        items,
		CreatedBy:    order.CreatedBy,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

// Create handles POST /orders (salesperson only).
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if len(req.CustomerName) == 0 || len(req.CustomerName) > 255 {
		writeError(w, http.StatusBadRequest, "invalid_customer_name", "customer_name must be 1-255 characters")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_items", "at least one item is required")
		return
	}
	lines := make([]service.OrderLineInput, len(req.Items))
	for i, item := range req.Items {
		if item.ItemID == "" || item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_items", "each item needs an item_id and a positive quantity")
			return
		}
		lines[i] = service.OrderLineInput{ItemID: item.ItemID, Quantity: item.Quantity}
	}

	actor, _ := auth.ActorFrom(r.Context())
	order, err := h.fulfillment.CreateOrder(r.Context(), service.CreateOrderInput{
		CustomerName:   req.CustomerName,
		Lines:          lines,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /orders/{orderID} (any authenticated role).
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.fulfillment.Order(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /orders/{orderID}/status (warehouse manager or
// admin).
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_status", `status must be one of "pending", "processing", "fulfilled"`)
		return
	}

	order, err := h.fulfillment.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
