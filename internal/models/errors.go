package models

import "errors"

// Error kinds shared by every layer. Packages wrap these with fmt.Errorf("%w: ...")
// and callers classify failures with errors.Is.
var (
	// ErrValidation marks input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration marks a missing server credential or setting.
	ErrConfiguration = errors.New("configuration error")

	// ErrIngestion marks a menu ingestion that produced nothing usable.
	ErrIngestion = errors.New("ingestion failed")

	// ErrStore marks a read or write against the store that did not apply.
	ErrStore = errors.New("store error")

	// ErrUnauthorized marks an action the actor is not allowed to perform.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound marks a missing user, order or menu item.
	ErrNotFound = errors.New("not found")

	// ErrOrderingClosed marks a non-admin order after the deadline.
	ErrOrderingClosed = errors.New("ordering is closed")
)
