package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

// MySQLStore implements the record-store ports over MySQL. Every method is
// one independent statement: there is deliberately no transaction spanning
// orders, order_items and inventory_items, because the contract these ports
// model is a keyed record store without cross-collection atomicity. The
// ON DELETE CASCADE constraint on order_items provides the referential
// cleanup the compensation path relies on.
type MySQLStore struct {
	db *sql.DB
}

var (
	_ port.InventoryRepository = (*MySQLStore)(nil)
	_ port.OrderRepository     = (*MySQLStore)(nil)
	_ port.UserRepository      = (*MySQLStore)(nil)
)

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Ping reports whether the store is reachable.
func (m *MySQLStore) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// --- StockLedger / InventoryRepository ---

const itemColumns = "id, name, COALESCE(description, ''), stock_level, low_stock_threshold, created_at, updated_at"

func scanItem(row *sql.Row) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.StockLevel,
		&item.LowStockThreshold, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan inventory item: %w", err)
	}
	return &item, nil
}

func (m *MySQLStore) Item(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM inventory_items WHERE id = ?", itemID)
	return scanItem(row)
}

func (m *MySQLStore) ItemByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM inventory_items WHERE name = ?", name)
	return scanItem(row)
}

func (m *MySQLStore) ApplyStockDelta(ctx context.Context, itemID string, delta, expected int) (int, error) {
	if expected+delta < 0 {
		return 0, domain.ErrInsufficientStock
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET stock_level = stock_level + ?, updated_at = NOW()
		WHERE id = ? AND stock_level = ?`,
		delta, itemID, expected,
	)
	if err != nil {
		return 0, fmt.Errorf("update stock level: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the item vanished or a concurrent writer moved the level.
		if _, err := m.Item(ctx, itemID); errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, domain.ErrStockConflict
	}

	return expected + delta, nil
}

func (m *MySQLStore) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM inventory_items ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.StockLevel,
			&item.LowStockThreshold, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLStore) CreateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.ID = uuid.NewString()
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, name, description, stock_level, low_stock_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Description, item.StockLevel, item.LowStockThreshold,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}
	return &item, nil
}

func (m *MySQLStore) UpdateItem(ctx context.Context, itemID string, changes port.ItemChanges) (*domain.InventoryItem, error) {
	var (
		sets []string
		args []any
	)
	if changes.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *changes.Name)
	}
	if changes.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *changes.Description)
	}
	if changes.StockLevel != nil {
		sets, args = append(sets, "stock_level = ?"), append(args, *changes.StockLevel)
	}
	if changes.LowStockThreshold != nil {
		sets, args = append(sets, "low_stock_threshold = ?"), append(args, *changes.LowStockThreshold)
	}
	if len(sets) == 0 {
		return m.Item(ctx, itemID)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, itemID)

	_, err := m.db.ExecContext(ctx,
		"UPDATE inventory_items SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	return m.Item(ctx, itemID)
}

// --- OrderRepository ---

func (m *MySQLStore) CreateHeader(ctx context.Context, customerName, createdBy string) (*domain.Order, error) {
	order := domain.Order{
		ID:           uuid.NewString(),
		CustomerName: customerName,
		Status:       domain.OrderStatusPending,
		CreatedBy:    createdBy,
	}
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerName, order.Status, order.CreatedBy,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &order, nil
}

func (m *MySQLStore) CreateLine(ctx context.Context, orderID, itemID string, quantity int, itemName string) (*domain.OrderLine, error) {
	line := domain.OrderLine{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		ItemID:   itemID,
		ItemName: itemName,
		Quantity: quantity,
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, item_id, item_name, quantity)
		VALUES (?, ?, ?, ?, ?)`,
		line.ID, line.OrderID, line.ItemID, line.ItemName, line.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order line: %w", err)
	}
	return &line, nil
}

func (m *MySQLStore) DeleteHeader(ctx context.Context, orderID string) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (m *MySQLStore) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_name, status, created_by, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&order.ID, &order.CustomerName, &order.Status, &order.CreatedBy,
		&order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (m *MySQLStore) Lines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, order_id, item_id, item_name, quantity
		FROM order_items WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.ItemName, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (m *MySQLStore) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	// Existence check first: a no-op status write affects zero rows in
	// MySQL, so RowsAffected cannot distinguish missing from unchanged.
	if _, err := m.Order(ctx, orderID); err != nil {
		return nil, err
	}

	_, err := m.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?", status, orderID)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return m.Order(ctx, orderID)
}

// --- UserRepository ---

const userColumns = `id, email, COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(phone_number, ''), COALESCE(emergency_contact_number, ''),
	COALESCE(password_hash, ''), role, status, created_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber,
		&u.EmergencyContactNumber, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (m *MySQLStore) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (m *MySQLStore) UserByID(ctx context.Context, userID string) (*domain.User, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	return scanUser(row)
}

func (m *MySQLStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber,
			&u.EmergencyContactNumber, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (m *MySQLStore) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, phone_number,
			emergency_contact_number, password_hash, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FirstName, user.LastName, user.PhoneNumber,
		user.EmergencyContactNumber, user.PasswordHash, user.Role, user.Status,
		user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (m *MySQLStore) DeleteUser(ctx context.Context, userID string) error {
	result, err := m.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MySQLStore) ActivateUser(ctx context.Context, userID string, profile port.UserProfile, passwordHash string) (*domain.User, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = ?, last_name = ?, phone_number = ?,
			emergency_contact_number = ?, password_hash = ?, status = ?
		WHERE id = ?`,
		profile.FirstName, profile.LastName, profile.PhoneNumber,
		profile.EmergencyContactNumber, passwordHash, domain.UserStatusActive, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := m.UserByID(ctx, userID); errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
	}
	return m.UserByID(ctx, userID)
}
