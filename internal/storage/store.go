// Package storage provides abstractions for the synchronized document store
// that holds the menu, users and orders.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/lunchtab/internal/models"
)

// ErrNotFound is returned when a user or order does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the contract of the shared document store.
// This abstraction allows swapping backends (SQLite, Redis) without changing
// the ledger engine.
//
// Balance changes must go through IncrementBalance, which every backend
// implements as an atomic add so concurrent orders never lose an update.
// Everything else is last-writer-wins at the document level.
type Store interface {
	// GetMenu returns today's menu. A store that has never saved one returns
	// an empty menu and no error.
	GetMenu(ctx context.Context) (*models.Menu, error)

	// SaveMenu replaces today's menu wholesale and sets menu.UpdatedAt.
	SaveMenu(ctx context.Context, menu *models.Menu) error

	// EnsureUser returns the user whose Key matches, creating it with a zero
	// balance when missing. LastActive is refreshed either way.
	EnsureUser(ctx context.Context, name, key string) (*models.User, error)

	// GetUser retrieves a user by name. Returns ErrNotFound if missing.
	GetUser(ctx context.Context, name string) (*models.User, error)

	// ListUsers returns every user, most recently active first.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// IncrementBalance atomically adds delta to the user's balance and
	// returns the new balance. Returns ErrNotFound if the user is missing.
	IncrementBalance(ctx context.Context, name string, delta int64) (int64, error)

	// CreateOrder persists a new order. order.ID is generated when empty and
	// order.CreatedAt is assigned by the store when zero.
	CreateOrder(ctx context.Context, order *models.Order) error

	// GetOrder retrieves an order by ID. Returns ErrNotFound if missing.
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)

	// DeleteOrder removes an order. Returns ErrNotFound if missing.
	DeleteOrder(ctx context.Context, orderID string) error

	// ListOrders returns every order, newest first.
	ListOrders(ctx context.Context) ([]*models.Order, error)

	// CreateSettlement persists a settlement record.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlements returns every settlement, newest first.
	ListSettlements(ctx context.Context) ([]*models.Settlement, error)

	// Subscribe delivers a Change for every mutation on the given streams
	// (all streams when none are given) until ctx is done. Changes on one
	// stream arrive in mutation order; there is no ordering across streams
	// and bursts may be coalesced.
	Subscribe(ctx context.Context, streams ...Stream) (<-chan Change, error)

	// Close releases any resources held by the store.
	Close() error
}
