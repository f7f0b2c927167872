package storage

import (
	"context"
	"slices"
	"sync"
)

// Stream names one of the store's document collections.
type Stream string

const (
	StreamMenu   Stream = "menu"
	StreamUsers  Stream = "users"
	StreamOrders Stream = "orders"
)

// AllStreams lists every stream a Subscribe call can watch.
var AllStreams = []Stream{StreamMenu, StreamUsers, StreamOrders}

// Change tells subscribers that a document in Stream was mutated.
// Key identifies the document (menu id, user name, order id) when known.
type Change struct {
	Stream Stream `json:"stream"`
	Key    string `json:"key"`
}

// subscriberBuffer bounds how far a slow subscriber can fall behind before
// changes are coalesced.
const subscriberBuffer = 64

// Hub fans changes out to in-process subscribers. Backends without native
// notifications (SQLite) publish into it after every committed write.
//
// A subscriber whose buffer is full misses individual changes but never all of
// them: Publish drops only while a pending change is still queued, and
// subscribers always recompute from a fresh snapshot.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	streams []Stream
	ch      chan Change
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Publish delivers a change to every subscriber watching its stream.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !slices.Contains(sub.streams, c.Stream) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}

// Subscribe registers a subscriber that is removed, and its channel closed,
// when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, streams ...Stream) <-chan Change {
	if len(streams) == 0 {
		streams = AllStreams
	}
	sub := &subscriber{streams: streams, ch: make(chan Change, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch
}
