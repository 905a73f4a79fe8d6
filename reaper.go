package goRevoke

import (
	"context"
	"log"
	"time"
)

// StartReaper launches a background loop that periodically removes
// lapsed ledger entries. It returns immediately; the loop stops when ctx
// is cancelled. Entries carry native TTLs, so a stopped reaper degrades
// storage hygiene, never correctness.
//
// StartReaper may return an error when input validation, dependency calls, or security checks fail.
// StartReaper does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartReaper(ctx context.Context) {
	if e == nil || e.store == nil || e.config.Reaper.Interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(e.config.Reaper.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.ReapExpired(ctx); err != nil {
					log.Printf("goRevoke: reaper sweep failed: %v", err)
				}
			}
		}
	}()
}
