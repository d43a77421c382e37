package billing

import (
	"encoding/json"
	"time"
)

// BillingRecord is one deduplicated scrape outcome. After insertion the only
// permitted mutation is assigning a category; records are never deleted.
type BillingRecord struct {
	ID       uint64 `json:"billingid"`
	Service  string `json:"service"`
	Username string `json:"username"`
	// SecretHash is the one-way bcrypt hash of the password used for the
	// scrape. It is write-only audit data and is never used to
	// authenticate anywhere.
	SecretHash string          `json:"secret_hash,omitempty"`
	Payload    json.RawMessage `json:"data"`
	// DedupKey is the canonical (service, due date, amount) key. Records
	// are unique on it.
	DedupKey   string    `json:"dedup_key,omitempty"`
	CategoryID *uint64   `json:"categoryid,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category is a user-facing label attachable to billing records. Categories
// are administered out-of-band; this service only reads and assigns them.
type Category struct {
	ID    uint64 `json:"categoryid"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}
