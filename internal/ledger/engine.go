// Package ledger is the ordering engine: it turns user actions (login, order,
// cancel, settle, menu edits) into store writes and keeps every balance equal
// to the sum of that user's order prices minus settlements.
//
// The store offers atomic per-balance adds but no multi-document
// transactions, so two-write operations are ordered so that a failure in the
// second write can be undone by a compensating write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/lunchtab/internal/events"
	"github.com/mmynk/lunchtab/internal/ident"
	"github.com/mmynk/lunchtab/internal/metrics"
	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

// Actor is who performs an operation.
type Actor struct {
	UserName string
	IsAdmin  bool
}

// PasscodeChecker verifies the shared admin code.
type PasscodeChecker interface {
	Check(attempt string) error
}

// Engine implements the ledger operations on top of a storage.Store.
// It is safe for concurrent use and holds no locks across store calls.
type Engine struct {
	store    storage.Store
	clock    Clock
	loc      *time.Location
	tick     time.Duration
	passcode PasscodeChecker
	events   events.Publisher
	metrics  *metrics.Metrics
	itemIDs  *ident.Monotonic
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

// WithTick sets how often watchers re-evaluate the ordering window.
func WithTick(d time.Duration) Option { return func(e *Engine) { e.tick = d } }

func WithPasscode(p PasscodeChecker) Option { return func(e *Engine) { e.passcode = p } }

func WithPublisher(p events.Publisher) Option { return func(e *Engine) { e.events = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithItemIDs(ids *ident.Monotonic) Option { return func(e *Engine) { e.itemIDs = ids } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// New creates an Engine. Defaults: wall clock, local time zone, 30s tick,
// no admin passcode, events dropped.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		clock:   SystemClock{},
		loc:     time.Local,
		tick:    DefaultTick,
		events:  events.Nop{},
		itemIDs: ident.NewMonotonic(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "ledger")
	return e
}

// Location returns the time zone used for deadlines and day boundaries.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// ItemIDs returns the id source shared with menu ingestion.
func (e *Engine) ItemIDs() *ident.Monotonic {
	return e.itemIDs
}

// Login resolves rawName to an existing user (by normalized key) or creates
// one with a zero balance, and refreshes its last-active time.
func (e *Engine) Login(ctx context.Context, rawName string) (*models.User, error) {
	name := ident.DisplayName(rawName)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	user, err := e.store.EnsureUser(ctx, name, ident.NameKey(name))
	if err != nil {
		return nil, e.storeError("login", err)
	}
	e.logger.Debug("User logged in", "user_name", user.Name)
	return user, nil
}

// KnownUsers lists every user, most recently active first.
func (e *Engine) KnownUsers(ctx context.Context) ([]*models.User, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, e.storeError("list_users", err)
	}
	return users, nil
}

// ElevateAdmin grants admin rights when code matches the shared passcode.
func (e *Engine) ElevateAdmin(actor Actor, code string) (Actor, error) {
	if actor.UserName == "" {
		return actor, errLoginRequired
	}
	if e.passcode == nil {
		return actor, fmt.Errorf("%w: admin passcode is not configured", models.ErrConfiguration)
	}
	if err := e.passcode.Check(code); err != nil {
		e.logger.Warn("Admin elevation rejected", "user_name", actor.UserName)
		return actor, err
	}
	e.logger.Info("Admin elevated", "user_name", actor.UserName)
	return Actor{UserName: actor.UserName, IsAdmin: true}, nil
}

var (
	errLoginRequired = fmt.Errorf("%w: login required", models.ErrUnauthorized)
	errAdminRequired = fmt.Errorf("%w: admin required", models.ErrUnauthorized)
)

func requireUser(actor Actor) error {
	if actor.UserName == "" {
		return errLoginRequired
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin {
		return errAdminRequired
	}
	return nil
}

// storeError classifies a failed store call. Missing documents keep their
// own kind so callers can tell them apart from outages.
func (e *Engine) storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, op)
	}
	e.metrics.StoreFailure(op)
	return fmt.Errorf("%w: %s: %w", models.ErrStore, op, err)
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	ev.At = e.clock.Now()
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn("Failed to publish event", "type", ev.Type, "error", err)
	}
}
