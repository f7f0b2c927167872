package models

import "time"

// Order is one user's order against a menu item.
//
// Item name and unit price are copied from the menu when the order is placed,
// so later menu edits (price changes, removals) never affect existing orders.
// Orders are immutable; the only mutation is deletion (cancellation).
type Order struct {
	// ID is the unique identifier for the order (UUID format).
	ID string `json:"id"`

	// UserName is the owner. Only the owner or an admin may cancel.
	UserName string `json:"userName"`

	ItemID    string `json:"itemId"`
	ItemName  string `json:"itemName"`
	UnitPrice int64  `json:"unitPrice"`

	// Quantity is always >= 1.
	Quantity int64 `json:"quantity"`

	// Note is free text ("no onions").
	Note string `json:"note"`

	// Price is UnitPrice * Quantity. It is the amount added to the owner's balance.
	Price int64 `json:"price"`

	// CreatedAt is assigned by the store when the order is first written.
	CreatedAt time.Time `json:"createdAt"`
}
