package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCatalog_Default(t *testing.T) {
	c := &Config{Catalog: DefaultCatalog}
	quotes := c.ParseCatalog()

	if len(quotes) != 6 {
		t.Fatalf("expected 6 instruments, got %d", len(quotes))
	}
	if quotes[0].Ticker != "RELI" || quotes[0].Name != "Reliance Industries" {
		t.Errorf("first entry: %+v", quotes[0])
	}
	if !quotes[0].Price.Equal(decimal.RequireFromString("2500")) {
		t.Errorf("RELI price: %s", quotes[0].Price)
	}
	if quotes[5].Ticker != "HIND" {
		t.Errorf("last entry: %+v", quotes[5])
	}
}

func TestParseCatalog_SkipsInvalidEntries(t *testing.T) {
	c := &Config{Catalog: "RELI:Reliance:2500, broken ,TCS:Tata:abc,:NoTicker:10,infy:Infosys:1450"}
	quotes := c.ParseCatalog()

	if len(quotes) != 2 {
		t.Fatalf("expected 2 valid entries, got %d: %+v", len(quotes), quotes)
	}
	if quotes[0].Ticker != "RELI" || quotes[1].Ticker != "INFY" {
		t.Errorf("tickers: %s, %s", quotes[0].Ticker, quotes[1].Ticker)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if !cfg.StartingCash.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("starting cash: %s", cfg.StartingCash)
	}
	if cfg.TickInterval.Milliseconds() != 1000 {
		t.Errorf("tick interval: %s", cfg.TickInterval)
	}
	if cfg.HistoryCap != 500 {
		t.Errorf("history cap: %d", cfg.HistoryCap)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("redis should default to disabled, got %q", cfg.RedisAddr)
	}
}
