package scrape

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultProviders []byte

// FieldSpec names one extracted field and where it lives on the page. Index
// selects among multiple matches of the selector (0 is the first).
type FieldSpec struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
	Index    int    `yaml:"index,omitempty"`
}

// Provider carries the portal URLs, selectors and dedup field names for one
// provider. Markup drift against the live portal is absorbed by editing a
// manifest, never by touching driver control flow.
type Provider struct {
	LoginURL   string `yaml:"login_url"`
	BillingURL string `yaml:"billing_url"`

	// ConsentSelector, when set, is a dialog dismissed best-effort before
	// login.
	ConsentSelector  string `yaml:"consent_selector,omitempty"`
	UsernameSelector string `yaml:"username_selector"`
	PasswordSelector string `yaml:"password_selector"`
	SubmitSelector   string `yaml:"submit_selector"`

	// LoggedInSelector must only exist on authenticated pages; it is the
	// readiness condition after credential submission.
	LoggedInSelector string `yaml:"logged_in_selector"`
	// ReadySelector gates extraction on the billing page.
	ReadySelector string `yaml:"ready_selector"`

	// CardSelector, when set, yields one entry per matching element
	// instead of a single entry for the whole page.
	CardSelector string `yaml:"card_selector,omitempty"`

	Fields []FieldSpec `yaml:"fields"`

	// DueDateField and AmountField name the entry fields that form the
	// duplicate-detection key for this provider. DueDateField may be
	// empty for providers whose billing page carries no due date.
	DueDateField string `yaml:"due_date_field,omitempty"`
	AmountField  string `yaml:"amount_field"`
}

// Config maps service names to provider definitions.
type Config struct {
	Providers map[string]Provider `yaml:"providers"`
}

// LoadConfig reads a provider manifest from path, or the embedded defaults
// when path is empty.
func LoadConfig(path string) (Config, error) {
	data := defaultProviders
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading provider config: %w", err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing provider config: %w", err)
	}

	for _, svc := range []string{ServiceElectricity, ServiceTelecom, ServiceWater} {
		p, ok := cfg.Providers[svc]
		if !ok {
			return Config{}, fmt.Errorf("provider config missing service %q", svc)
		}
		if p.LoginURL == "" || p.BillingURL == "" {
			return Config{}, fmt.Errorf("provider %q: login_url and billing_url are required", svc)
		}
		if len(p.Fields) == 0 {
			return Config{}, fmt.Errorf("provider %q: at least one field is required", svc)
		}
	}
	return cfg, nil
}

// NewScrapers builds one driver per configured provider.
func NewScrapers(cfg Config, sessions SessionFactory) map[string]Scraper {
	return map[string]Scraper{
		ServiceElectricity: NewElectricity(cfg.Providers[ServiceElectricity], sessions),
		ServiceTelecom:     NewTelecom(cfg.Providers[ServiceTelecom], sessions),
		ServiceWater:       NewWater(cfg.Providers[ServiceWater], sessions),
	}
}
