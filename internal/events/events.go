// Package events publishes ledger events (orders, cancellations,
// settlements, menu changes) for downstream consumers such as a payment
// reminder bot or an audit log.
package events

import (
	"context"
	"time"
)

// Type names what happened.
type Type string

const (
	OrderPlaced    Type = "order_placed"
	OrderCancelled Type = "order_cancelled"
	DebtSettled    Type = "debt_settled"
	MenuReplaced   Type = "menu_replaced"
	MenuEdited     Type = "menu_edited"
)

// Event is one ledger fact. Amount is the balance delta for the affected
// user (positive for orders, negative for cancellations and settlements).
type Event struct {
	Type     Type      `json:"type"`
	Actor    string    `json:"actor"`
	UserName string    `json:"userName,omitempty"`
	OrderID  string    `json:"orderId,omitempty"`
	ItemName string    `json:"itemName,omitempty"`
	Amount   int64     `json:"amount,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher ships events. Publishing is best effort: the ledger has already
// committed the change when Publish is called.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
