package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"gopkg.in/yaml.v3"

	"github.com/velonias/billsentry/internal/billing"
	"github.com/velonias/billsentry/internal/scrape"
)

//go:embed VERSION.txt
var versionFile string

//go:embed categories.yaml
var defaultCategories []byte

var version = strings.TrimSpace(versionFile)

// categorySeed is the out-of-band administrative seed applied to an empty
// store on startup.
type categorySeed struct {
	Categories []billing.Category `yaml:"categories"`
}

func loadCategorySeed(path string) ([]billing.Category, error) {
	data := defaultCategories
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading category seed: %w", err)
		}
	}
	var seed categorySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing category seed: %w", err)
	}
	return seed.Categories, nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("billsentry")
	var (
		port          = fs.IntLong("port", 8082, "HTTP server port")
		dbPath        = fs.StringLong("db", "billsentry.db", "Database file path")
		providersPath = fs.StringLong("providers", "", "Provider manifest path (defaults to the embedded manifest)")
		seedPath      = fs.StringLong("categories", "", "Category seed path (defaults to the embedded seed)")
		scrapeTimeout = fs.DurationLong("scrape-timeout", 2*time.Minute, "Hard deadline per scrape attempt")
		maxSessions   = fs.IntLong("max-sessions", 2, "Concurrent browser sessions allowed per provider")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILLSENTRY"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Load the provider manifest
	slog.Info("Loading provider manifest...")
	cfg, err := scrape.LoadConfig(*providersPath)
	if err != nil {
		slog.Error("Failed to load provider manifest", "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := billing.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Build one driver per provider, each on its own browser session
	scrapers := scrape.NewScrapers(cfg, scrape.NewBrowserSession)
	keys := make(map[string]billing.KeyFields, len(cfg.Providers))
	for name, p := range cfg.Providers {
		keys[name] = billing.KeyFields{DueDate: p.DueDateField, Amount: p.AmountField}
	}

	// Initialize service
	service := billing.NewService(db, scrapers, keys, *scrapeTimeout, int64(*maxSessions))

	// Seed categories on an empty store
	categories, err := loadCategorySeed(*seedPath)
	if err != nil {
		slog.Error("Failed to load category seed", "error", err)
		os.Exit(1)
	}
	if err := service.SeedCategories(categories); err != nil {
		slog.Error("Failed to seed categories", "error", err)
		os.Exit(1)
	}

	// Initialize server
	server := billing.NewServer(service)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
