package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

// DefaultCatalog is the seed catalog: TICKER:Name:Price triples.
const DefaultCatalog = "RELI:Reliance Industries:2500," +
	"TCS:Tata Consultancy:3600," +
	"INFY:Infosys:1450," +
	"HDFC:HDFC Bank:1500," +
	"ICIC:ICICI Bank:920," +
	"HIND:Hindustan Unilever:2500"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Simulation
	StartingCash decimal.Decimal
	Catalog      string
	TickInterval time.Duration
	HistoryCap   int
	RNGSeed      int64 // 0 = time-seeded

	// Infrastructure
	HTTPAddr     string
	MetricsAddr  string
	SQLitePath   string
	SnapshotPath string

	// Redis is optional; empty addr disables publishing.
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		StartingCash: mustDecimalEnv("STARTING_CASH", "100000"),
		Catalog:      getEnv("CATALOG", DefaultCatalog),
		TickInterval: time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		HistoryCap:   getEnvInt("HISTORY_CAP", 500),
		RNGSeed:      int64(getEnvInt("RNG_SEED", 0)),

		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:  getEnv("METRICS_ADDR", ":9090"),
		SQLitePath:   getEnv("SQLITE_PATH", "data/journal.db"),
		SnapshotPath: getEnv("SNAPSHOT_PATH", "data/portfolio.csv"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// ParseCatalog parses the Catalog string into seed quotes. Entries are
// comma-separated TICKER:Name:Price triples; invalid entries are skipped
// with a log line, same as other lenient list parsing here.
func (c *Config) ParseCatalog() []model.Quote {
	parts := strings.Split(c.Catalog, ",")
	quotes := make([]model.Quote, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			log.Printf("[config] skipping invalid catalog entry: %q", part)
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(fields[0]))
		name := strings.TrimSpace(fields[1])
		price, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
		if err != nil || !price.IsPositive() || ticker == "" {
			log.Printf("[config] skipping invalid catalog entry: %q", part)
			continue
		}
		quotes = append(quotes, model.Quote{Ticker: ticker, Name: name, Price: price})
	}
	return quotes
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[config] %s must be an integer, got %q", key, v)
	}
	return n
}

func mustDecimalEnv(key, fallback string) decimal.Decimal {
	v := getEnv(key, fallback)
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Fatalf("[config] %s must be a non-negative decimal, got %q", key, v)
	}
	return d
}
