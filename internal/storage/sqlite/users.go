package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

const userColumns = "name, name_key, balance, last_active"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var lastActive int64
	if err := row.Scan(&user.Name, &user.Key, &user.Balance, &lastActive); err != nil {
		return nil, err
	}
	user.LastActive = fromNanos(lastActive)
	return user, nil
}

// EnsureUser finds the user by key or creates it with a zero balance.
// The stored display name of an existing user wins over the one passed in.
func (s *SQLiteStore) EnsureUser(ctx context.Context, name, key string) (*models.User, error) {
	now := s.now().UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name_key = ?", key))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		user = &models.User{Name: name, Key: key}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO users (name, name_key, balance, last_active) VALUES (?, ?, 0, ?)",
			name, key, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, "UPDATE users SET last_active = ? WHERE name = ?", now, user.Name); err != nil {
			return nil, fmt.Errorf("failed to touch user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.LastActive = fromNanos(now)
	s.publish(storage.StreamUsers, user.Name)
	return user, nil
}

// GetUser retrieves a user by name.
func (s *SQLiteStore) GetUser(ctx context.Context, name string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, most recently active first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY last_active DESC, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// IncrementBalance adds delta to the balance in a single UPDATE, so
// concurrent increments never overwrite each other.
func (s *SQLiteStore) IncrementBalance(ctx context.Context, name string, delta int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		"UPDATE users SET balance = balance + ? WHERE name = ? RETURNING balance",
		delta, name,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("user %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment balance: %w", err)
	}

	s.publish(storage.StreamUsers, name)
	return balance, nil
}
