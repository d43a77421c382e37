package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/velonias/billsentry/internal/scrape"
)

// SecretHasher produces the one-way hash stored with each record.
type SecretHasher interface {
	Hash(secret string) (string, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// bcryptHasher is slow and adaptive on purpose.
type bcryptHasher struct{}

func (bcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// SaveResult reports the persistence outcome for one scraped entry.
type SaveResult struct {
	Inserted bool
	// RecordID is set when the entry was inserted.
	RecordID uint64
}

// ScrapeReport is the outcome of one submit-and-scrape request.
type ScrapeReport struct {
	Service string
	Entries []scrape.Entry
	Results []SaveResult
}

// Service composes the drivers, the normalizer and the store. It holds no
// request state of its own.
type Service struct {
	db         DB
	scrapers   map[string]scrape.Scraper
	keys       map[string]KeyFields
	hasher     SecretHasher
	timeSource TimeSource
	timeout    time.Duration
	// limits bounds concurrent browser sessions per provider, one
	// semaphore each. Sessions are expensive and the portals throttle.
	limits map[string]*semaphore.Weighted
}

// NewService creates a new Service with the bcrypt hasher
func NewService(db DB, scrapers map[string]scrape.Scraper, keys map[string]KeyFields, timeout time.Duration, maxSessions int64) *Service {
	return NewServiceWithDeps(db, scrapers, keys, timeout, maxSessions, bcryptHasher{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scrapers map[string]scrape.Scraper, keys map[string]KeyFields, timeout time.Duration, maxSessions int64, hasher SecretHasher, timeSource TimeSource) *Service {
	if maxSessions < 1 {
		maxSessions = 1
	}
	limits := make(map[string]*semaphore.Weighted, len(scrapers))
	for name := range scrapers {
		limits[name] = semaphore.NewWeighted(maxSessions)
	}
	return &Service{
		db:         db,
		scrapers:   scrapers,
		keys:       keys,
		hasher:     hasher,
		timeSource: timeSource,
		timeout:    timeout,
		limits:     limits,
	}
}

// SubmitScrape runs one scrape attempt against a provider and persists any
// entries that are not duplicates of stored billing events.
func (s *Service) SubmitScrape(ctx context.Context, service, username, password string) (*ScrapeReport, error) {
	if service == "" {
		return nil, &ValidationError{Field: "service", Reason: "missing"}
	}
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "missing"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "missing"}
	}

	scraper, ok := s.scrapers[service]
	if !ok {
		return nil, &ValidationError{Field: "service", Reason: fmt.Sprintf("unknown service %q", service)}
	}

	attempt := uuid.NewString()
	slog.Info("Starting scrape", "attempt", attempt, "service", service, "username", username)

	limit := s.limits[service]
	if err := limit.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for %s session slot: %w", service, err)
	}
	defer limit.Release(1)

	scrapeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := scraper.Scrape(scrapeCtx, username, password)
	if err != nil {
		slog.Error("Scrape failed", "attempt", attempt, "service", service, "error", err)
		return nil, err
	}

	report := &ScrapeReport{Service: service, Entries: entries}

	// The secret is hashed at most once per call, and only when an entry
	// actually needs inserting.
	var secretHash string
	for _, entry := range entries {
		payload := NewPayload(service, entry)
		doc, err := payload.Document()
		if err != nil {
			return nil, err
		}
		key := payload.DedupKey(s.keys[service])

		exists, err := s.db.HasDedupKey(key)
		if err != nil {
			return nil, fmt.Errorf("checking for duplicate: %w", err)
		}
		if exists {
			slog.Info("Skipping duplicate entry", "attempt", attempt, "service", service, "key", key)
			report.Results = append(report.Results, SaveResult{Inserted: false})
			continue
		}

		if secretHash == "" {
			secretHash, err = s.hasher.Hash(password)
			if err != nil {
				return nil, err
			}
		}

		rec := &BillingRecord{
			Service:    service,
			Username:   username,
			SecretHash: secretHash,
			Payload:    doc,
			DedupKey:   key,
			CreatedAt:  s.timeSource.Now(),
		}
		// The insert re-checks the key inside its transaction, so two
		// concurrent submissions of the same bill cannot both land.
		inserted, err := s.db.InsertBillingRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("saving billing record: %w", err)
		}
		if inserted {
			slog.Info("Saved billing record", "attempt", attempt, "service", service, "billingid", rec.ID)
		}
		report.Results = append(report.Results, SaveResult{Inserted: inserted, RecordID: rec.ID})
	}

	return report, nil
}

// ListBillingRecords returns all stored records
func (s *Service) ListBillingRecords() ([]*BillingRecord, error) {
	records, err := s.db.ListBillingRecords()
	if err != nil {
		return nil, fmt.Errorf("listing billing records: %w", err)
	}
	return records, nil
}

// ListCategories returns all seeded categories
func (s *Service) ListCategories() ([]*Category, error) {
	categories, err := s.db.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// AssignCategory sets the category on a billing record.
func (s *Service) AssignCategory(recordID, categoryID uint64) error {
	if recordID == 0 {
		return &ValidationError{Field: "billingid", Reason: "missing"}
	}
	if categoryID == 0 {
		return &ValidationError{Field: "categoryid", Reason: "missing"}
	}
	return s.db.AssignCategory(recordID, categoryID)
}

// SeedCategories stores the given categories if none exist yet. Category
// administration is otherwise out-of-band.
func (s *Service) SeedCategories(categories []Category) error {
	existing, err := s.db.ListCategories()
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for i := range categories {
		if err := s.db.SaveCategory(&categories[i]); err != nil {
			return fmt.Errorf("seeding category %q: %w", categories[i].Name, err)
		}
	}
	slog.Info("Seeded categories", "count", len(categories))
	return nil
}
