package models

import "time"

// User is one participant of the shared ledger.
//
// There is no registration step: a user is created the first time someone logs
// in with a new display name, and is never deleted.
type User struct {
	// Name is the display name as first registered. It is the primary key used
	// by orders and balance updates.
	Name string `json:"name"`

	// Key is the normalized identity of Name (trimmed, NFC, case-folded).
	// Two logins whose keys match resolve to the same user.
	Key string `json:"key"`

	// Balance is what the user owes the group, in integer currency units.
	// It grows with orders and shrinks with cancellations and settlements,
	// and may go negative when a settlement overshoots.
	Balance int64 `json:"balance"`

	// LastActive is refreshed on every login.
	LastActive time.Time `json:"lastActive"`
}

// HasDebt reports whether the user currently owes anything.
// Negative balances render as "no debt".
func (u *User) HasDebt() bool {
	return u.Balance > 0
}
