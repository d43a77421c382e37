package scrape

import "context"

// Session is the subset of browser operations the drivers need. The
// production implementation runs a headless Chrome tab; tests script it.
type Session interface {
	// Navigate loads url and waits for the page load to complete.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the element matching sel is visible. This
	// is the readiness primitive for asynchronously rendered content;
	// drivers never sleep for a fixed duration.
	WaitVisible(ctx context.Context, sel string) error

	// SendKeys types value into the element matching sel.
	SendKeys(ctx context.Context, sel, value string) error

	// Click clicks the element matching sel.
	Click(ctx context.Context, sel string) error

	// ClickIfVisible clicks sel if it appears within a short grace period
	// and reports whether it did. Used for optional consent dialogs.
	ClickIfVisible(ctx context.Context, sel string) bool

	// Eval runs a JavaScript expression on the current page and
	// unmarshals its result into out.
	Eval(ctx context.Context, js string, out any) error

	// Close tears the session down. Safe to call on every exit path.
	Close() error
}

// SessionFactory opens a fresh browser session. Sessions are never pooled
// or shared; each scrape attempt gets its own.
type SessionFactory func(ctx context.Context) (Session, error)
