package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

// Fulfillment runs the stock-constrained order creation sequence and the
// status transitions on existing orders.
//
// The backing store offers no transaction spanning the order header, its
// lines and the stock counters, so creation is an ordered sequence of
// independent writes with a compensating delete if any of them fails.
type Fulfillment struct {
	ledger port.StockLedger
	orders port.OrderRepository
	idem   port.IdempotencyGuard
	logger *zap.Logger
}

func NewFulfillment(ledger port.StockLedger, orders port.OrderRepository, idem port.IdempotencyGuard, logger *zap.Logger) *Fulfillment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fulfillment{ledger: ledger, orders: orders, idem: idem, logger: logger}
}

// OrderLineInput is one requested (item, quantity) pair.
type OrderLineInput struct {
	ItemID   string
	Quantity int
}

// CreateOrderInput is a fulfillment request. IdempotencyKey is optional;
// when set and an IdempotencyGuard is configured, a reused key fails with
// domain.ErrDuplicateRequest before anything is validated or written.
type CreateOrderInput struct {
	CustomerName   string
	Lines          []OrderLineInput
	IdempotencyKey string
}

// CreateOrder validates stock for every requested line, then commits the
// order: header first, then per line an order-line insert followed by a
// compare-and-set stock decrement, strictly in request order.
//
// Outcomes:
//   - *domain.InsufficientStockError: rejected during pre-validation with
//     one entry per unsatisfiable line; nothing was written.
//   - *domain.PersistenceError: a commit-phase write failed; the order
//     header was deleted (best effort) and the order is not retrievable.
//     Stock decrements already applied for earlier lines are not reversed.
//   - nil: the fully assembled order.
func (s *Fulfillment) CreateOrder(ctx context.Context, in CreateOrderInput, actor domain.Actor) (*domain.Order, error) {
	if s.idem != nil && in.IdempotencyKey != "" {
		ok, err := s.idem.Register(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	plan, err := s.validateStock(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, in, actor, plan)
}

// linePlan carries what pre-validation learned about one requested line:
// the item-name snapshot and the stock level the compare-and-set decrement
// must observe for this line. For repeated items the expected level already
// accounts for the decrements of earlier lines in the same order.
type linePlan struct {
	in       OrderLineInput
	itemName string
	expected int
}

func (s *Fulfillment) validateStock(ctx context.Context, lines []OrderLineInput) ([]linePlan, error) {
	var problems []domain.LineProblem
	plans := make([]linePlan, 0, len(lines))

	// remaining tracks per-item stock as earlier lines of this same order
	// consume it, so an order listing one item twice is validated against
	// the cumulative requirement.
	remaining := make(map[string]int)
	names := make(map[string]string)

	missing := make(map[string]bool)

	for _, line := range lines {
		if missing[line.ItemID] {
			problems = append(problems, domain.LineProblem{
				ItemID:    line.ItemID,
				Requested: line.Quantity,
				Missing:   true,
			})
			continue
		}

		avail, seen := remaining[line.ItemID]
		if !seen {
			item, err := s.ledger.Item(ctx, line.ItemID)
			if errors.Is(err, domain.ErrNotFound) {
				missing[line.ItemID] = true
				problems = append(problems, domain.LineProblem{
					ItemID:    line.ItemID,
					Requested: line.Quantity,
					Missing:   true,
				})
				continue
			}
			if err != nil {
				return nil, &domain.PersistenceError{Op: "read stock", Err: err}
			}
			avail = item.StockLevel
			names[line.ItemID] = item.Name
		}

		if line.Quantity > avail {
			problems = append(problems, domain.LineProblem{
				ItemID:    line.ItemID,
				ItemName:  names[line.ItemID],
				Requested: line.Quantity,
				Available: avail,
			})
			remaining[line.ItemID] = avail
			continue
		}

		plans = append(plans, linePlan{in: line, itemName: names[line.ItemID], expected: avail})
		remaining[line.ItemID] = avail - line.Quantity
	}

	if len(problems) > 0 {
		return nil, &domain.InsufficientStockError{Problems: problems}
	}
	return plans, nil
}

func (s *Fulfillment) commit(ctx context.Context, in CreateOrderInput, actor domain.Actor, plan []linePlan) (*domain.Order, error) {
	order, err := s.orders.CreateHeader(ctx, in.CustomerName, actor.UserID)
	if err != nil {
		// Nothing written yet, no compensation needed.
		return nil, &domain.PersistenceError{Op: "create order", Err: err}
	}

	for _, p := range plan {
		line, err := s.orders.CreateLine(ctx, order.ID, p.in.ItemID, p.in.Quantity, p.itemName)
		if err != nil {
			s.compensate(ctx, order.ID)
			return nil, &domain.PersistenceError{Op: "create order line", Err: err}
		}

		if _, err := s.ledger.ApplyStockDelta(ctx, p.in.ItemID, -p.in.Quantity, p.expected); err != nil {
			s.compensate(ctx, order.ID)
			return nil, &domain.PersistenceError{Op: "decrement stock", Err: err}
		}

		order.Lines = append(order.Lines, *line)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("created_by", actor.UserID),
		zap.Int("lines", len(order.Lines)))

	return order, nil
}

// compensate unwinds a partially committed order by deleting its header.
// Lines are removed by the store's referential cleanup. Stock decrements
// already applied for earlier lines are left in place; that residue is the
// documented limit of the best-effort rollback.
func (s *Fulfillment) compensate(ctx context.Context, orderID string) {
	if err := s.orders.DeleteHeader(ctx, orderID); err != nil {
		s.logger.Error("CRITICAL: compensation failed, order left half-written",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}
	s.logger.Warn("order rolled back after failed write", zap.String("order_id", orderID))
}

// Order returns the order with its lines, or domain.ErrNotFound.
func (s *Fulfillment) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

// UpdateStatus applies a status change to an existing order and returns the
// order with freshly re-read lines. Any valid status is accepted as a
// target regardless of the current one; the pending -> processing ->
// fulfilled progression is not enforced.
func (s *Fulfillment) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	s.logger.Info("order status updated",
		zap.String("order_id", orderID), zap.String("status", string(status)))

	return order, nil
}
