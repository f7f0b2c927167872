package models

import "time"

// Settlement records an admin reducing a user's balance after a real-world payment.
//
// The balance itself is changed through the store's atomic add; settlements are
// kept so the ledger can be reconciled against orders later.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// UserName is the user whose balance was reduced.
	UserName string `json:"userName"`

	// Amount is the value subtracted from the balance. Any value is accepted,
	// including more than the outstanding balance.
	Amount int64 `json:"amount"`

	// CreatedBy is the admin who recorded the settlement.
	CreatedBy string `json:"createdBy"`

	// CreatedAt is when the settlement was recorded.
	CreatedAt time.Time `json:"createdAt"`
}
