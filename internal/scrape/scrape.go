package scrape

import (
	"context"
	"errors"
	"fmt"
)

// Service names for the supported providers.
const (
	ServiceElectricity = "electricity"
	ServiceTelecom     = "telecom"
	ServiceWater       = "water"
)

// NotFound is the sentinel recorded for any field that could not be located
// on the provider page. A missing field never aborts an attempt; partial
// data is more useful to the caller than a hard failure on markup drift.
const NotFound = "Not found"

// Entry holds the raw fields extracted for one bill. Field names are the
// provider's own; no unification happens at this layer.
type Entry map[string]string

// Scraper drives one provider portal through login and field extraction.
type Scraper interface {
	// Service returns the provider name this scraper handles.
	Service() string

	// Scrape logs in with the given credentials and extracts billing
	// entries. Single-bill providers return a one-element slice; the
	// telecom provider returns one entry per connection. One call is one
	// attempt; no retries are performed and the browser session is
	// released on every exit path.
	Scrape(ctx context.Context, username, password string) ([]Entry, error)
}

// Kind classifies a fatal scrape failure.
type Kind string

const (
	KindSession    Kind = "session"
	KindNavigation Kind = "navigation"
	KindLogin      Kind = "login"
	KindExtraction Kind = "extraction"
	KindTimeout    Kind = "timeout"
)

// Error reports a fatal failure of one driver step.
type Error struct {
	Service string
	Step    string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s scraping failed at %s: %v", e.Service, e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// stepError wraps a step failure, mapping deadline expiry to KindTimeout so
// callers can distinguish a hung provider page from a broken one.
func stepError(service, step string, kind Kind, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Service: service, Step: step, Kind: kind, Err: err}
}
