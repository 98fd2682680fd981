package main

import (
	"context"
	"time"
)

// pollUntil calls ready every interval until it returns true, ctx ends or
// timeout passes. It reports whether ready succeeded.
func pollUntil(ctx context.Context, interval, timeout time.Duration, ready func() bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		if ready() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return ready()
		case <-tick.C:
		}
	}
}
