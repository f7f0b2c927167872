package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

// GetMenu returns today's menu, or an empty one if none was ever saved.
func (s *SQLiteStore) GetMenu(ctx context.Context) (*models.Menu, error) {
	menu := &models.Menu{Items: []models.Item{}}
	var updatedAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT restaurant_name, restaurant_phone, restaurant_address, image_url, order_deadline, updated_at
		 FROM menus WHERE id = ?`,
		models.TodayMenuID,
	).Scan(&menu.Restaurant.Name, &menu.Restaurant.Phone, &menu.Restaurant.Address,
		&menu.ImageURL, &menu.OrderDeadline, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return menu, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}
	menu.UpdatedAt = fromNanos(updatedAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price FROM menu_items WHERE menu_id = ? ORDER BY position",
		models.TodayMenuID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		menu.Items = append(menu.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu items: %w", err)
	}

	return menu, nil
}

// SaveMenu replaces today's menu and all of its items in one transaction.
func (s *SQLiteStore) SaveMenu(ctx context.Context, menu *models.Menu) error {
	updatedAt := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO menus (id, restaurant_name, restaurant_phone, restaurant_address, image_url, order_deadline, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    restaurant_name = excluded.restaurant_name,
		    restaurant_phone = excluded.restaurant_phone,
		    restaurant_address = excluded.restaurant_address,
		    image_url = excluded.image_url,
		    order_deadline = excluded.order_deadline,
		    updated_at = excluded.updated_at`,
		models.TodayMenuID, menu.Restaurant.Name, menu.Restaurant.Phone, menu.Restaurant.Address,
		menu.ImageURL, menu.OrderDeadline, updatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save menu: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM menu_items WHERE menu_id = ?", models.TodayMenuID); err != nil {
		return fmt.Errorf("failed to clear menu items: %w", err)
	}

	for i, item := range menu.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO menu_items (menu_id, id, position, name, price) VALUES (?, ?, ?, ?, ?)",
			models.TodayMenuID, item.ID, i, item.Name, item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert menu item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	menu.UpdatedAt = updatedAt
	s.publish(storage.StreamMenu, models.TodayMenuID)
	return nil
}
