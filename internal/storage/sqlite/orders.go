package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

const orderColumns = "id, user_name, item_id, item_name, unit_price, quantity, note, price, created_at"

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	var createdAt int64
	err := row.Scan(&order.ID, &order.UserName, &order.ItemID, &order.ItemName,
		&order.UnitPrice, &order.Quantity, &order.Note, &order.Price, &createdAt)
	if err != nil {
		return nil, err
	}
	order.CreatedAt = fromNanos(createdAt)
	return order, nil
}

// CreateOrder persists a new order, generating its ID and timestamp if unset.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		order.ID, order.UserName, order.ItemID, order.ItemName,
		order.UnitPrice, order.Quantity, order.Note, order.Price, order.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	s.publish(storage.StreamOrders, order.ID)
	return nil
}

// GetOrder retrieves an order by ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// DeleteOrder removes an order by ID.
func (s *SQLiteStore) DeleteOrder(ctx context.Context, orderID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", orderID, storage.ErrNotFound)
	}

	s.publish(storage.StreamOrders, orderID)
	return nil
}

// ListOrders returns every order, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}
