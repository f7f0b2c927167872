// Package ident produces identifiers: synthetic menu item ids and normalized
// user identity keys.
package ident

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Monotonic hands out strictly increasing numeric ids seeded from the wall
// clock in milliseconds. Ids stay unique within a process even when many are
// requested in the same millisecond.
type Monotonic struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewMonotonic returns a generator backed by time.Now.
func NewMonotonic() *Monotonic {
	return &Monotonic{now: time.Now}
}

// Next returns the next id.
func (m *Monotonic) Next() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now
	if m.now != nil {
		now = m.now
	}
	id := now().UnixMilli()
	if id <= m.last {
		id = m.last + 1
	}
	m.last = id
	return strconv.FormatInt(id, 10)
}

// Batch returns n consecutive ids.
func (m *Monotonic) Batch(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = m.Next()
	}
	return ids
}

// DisplayName cleans a user-typed name: NFC-normalized, trimmed, inner runs of
// whitespace collapsed to a single space.
func DisplayName(raw string) string {
	return strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
}

// NameKey is the identity used to detect two spellings of the same user
// ("Alice", " alice ").
func NameKey(raw string) string {
	// Casers are stateful; one per call.
	return cases.Fold().String(DisplayName(raw))
}
