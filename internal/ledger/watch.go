package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/lunchtab/internal/models"
	"github.com/mmynk/lunchtab/internal/storage"
)

// Watch calls fn with a fresh Board now, after every store change and on
// every tick (so the ordering window flips without any write). Each call
// recomputes from a full snapshot. Watch returns when ctx is done or fn
// returns an error.
func (e *Engine) Watch(ctx context.Context, actor Actor, search string, fn func(*Board) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := e.store.Subscribe(ctx, storage.StreamMenu, storage.StreamUsers, storage.StreamOrders)
	if err != nil {
		return e.storeError("watch", err)
	}

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		board, err := e.Board(ctx, actor, search)
		if err != nil {
			return err
		}
		if err := fn(board); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("%w: change stream closed", models.ErrStore)
			}
			drain(changes)
		case <-ticker.C:
		}
	}
}

// drain coalesces a burst of pending changes into one recompute.
func drain(changes <-chan storage.Change) {
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
