package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/velonias/billsentry/internal/scrape"
)

// Payload is the provider-tagged document stored for one bill entry. Fields
// keep their native names; providers' bill shapes are too dissimilar to
// unify at the server, and callers interpret them per provider.
type Payload struct {
	Provider string       `json:"provider"`
	Fields   scrape.Entry `json:"fields"`
}

// NewPayload tags one raw entry with its provider.
func NewPayload(service string, entry scrape.Entry) Payload {
	return Payload{Provider: service, Fields: entry}
}

// Document serializes the payload for storage.
func (p Payload) Document() (json.RawMessage, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return doc, nil
}

// KeyFields names the entry fields forming a provider's dedup key.
type KeyFields struct {
	DueDate string
	Amount  string
}

// DedupKey derives the canonical duplicate-detection key for the payload.
// Due dates compare as trimmed strings and amounts as parsed decimals, so
// "45,67 €" and "45.67" collapse to the same key. Two entries with equal
// keys are the same billing event.
func (p Payload) DedupKey(fields KeyFields) string {
	due := ""
	if fields.DueDate != "" {
		due = strings.TrimSpace(p.Fields[fields.DueDate])
	}
	amount := ""
	if fields.Amount != "" {
		amount = canonicalAmount(p.Fields[fields.Amount])
	}
	return p.Provider + "|" + due + "|" + amount
}

// canonicalAmount normalizes a scraped money string to a decimal in dot
// notation. Unparseable values (including the extraction sentinel) fall
// back to the trimmed raw text so the key stays deterministic.
func canonicalAmount(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, raw)

	// European notation: dot as thousands separator, comma as decimal.
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	// Two places, so "42.3" and "42.30" form the same key.
	return d.StringFixed(2)
}
