package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mmynk/lunchtab/internal/models"
)

// DefaultTick is how often TickingClock refreshes and watchers re-evaluate
// the ordering window.
const DefaultTick = 30 * time.Second

// Clock supplies the current time to the ordering window.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock on every call.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TickingClock caches the wall clock and refreshes it every interval.
// The ordering window therefore flips with up to one interval of delay.
type TickingClock struct {
	interval time.Duration
	now      atomic.Int64
}

// NewTickingClock returns a clock already set to the current time. Call Run
// to keep it fresh.
func NewTickingClock(interval time.Duration) *TickingClock {
	if interval <= 0 {
		interval = DefaultTick
	}
	c := &TickingClock{interval: interval}
	c.now.Store(time.Now().UnixNano())
	return c
}

// Now returns the last refreshed time.
func (c *TickingClock) Now() time.Time {
	return time.Unix(0, c.now.Load())
}

// Interval returns the refresh interval.
func (c *TickingClock) Interval() time.Duration {
	return c.interval
}

// Run refreshes the clock until ctx is done.
func (c *TickingClock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.now.Store(t.UnixNano())
		}
	}
}

// ParseDeadline validates a local "HH:MM" deadline and returns its hour and
// minute.
func ParseDeadline(deadline string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", deadline)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: deadline must be HH:MM, got %q", models.ErrValidation, deadline)
	}
	return t.Hour(), t.Minute(), nil
}

// IsClosed reports whether ordering is closed at now: a deadline is set and
// now is strictly after today's HH:MM:00 in loc. A deadline that does not
// parse keeps ordering open.
func IsClosed(deadline string, now time.Time, loc *time.Location) bool {
	if deadline == "" {
		return false
	}
	hour, minute, err := ParseDeadline(deadline)
	if err != nil {
		return false
	}
	local := now.In(loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	return local.After(cutoff)
}
