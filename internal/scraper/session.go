// Package scraper walks the catalog listing pages and extracts structured
// records from each title's detail view.
package scraper

import (
	"context"
	"time"
)

// Session is the DOM query/command surface the walker and extractor drive.
// Session lifecycle (browser flags, teardown) belongs to the implementation.
type Session interface {
	Navigate(ctx context.Context, url string) error
	ScrollBy(ctx context.Context, dx, dy int) error

	// Text returns the trimmed text content of the first element matching
	// the selector, or "" when no element matches.
	Text(ctx context.Context, selector string) (string, error)

	// Evaluate runs a JavaScript expression and unmarshals its result into
	// out. A nil out discards the result.
	Evaluate(ctx context.Context, expr string, out any) error

	Close(ctx context.Context) error
}

// pause blocks for d or until the context finishes.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// waitFor polls a boolean JavaScript expression until it holds, the budget
// runs out, or the context finishes. The budget replaces what used to be a
// fixed sleep, so callers proceed either way; the return value only says
// whether the condition was observed.
func waitFor(ctx context.Context, sess Session, expr string, budget, interval time.Duration) bool {
	deadline := time.Now().Add(budget)
	for {
		var ok bool
		if err := sess.Evaluate(ctx, expr, &ok); err == nil && ok {
			return true
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return false
		}
		pause(ctx, interval)
	}
}
