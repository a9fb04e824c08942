package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func timeNowFixed() time.Time {
	return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestHolding_MergeBuy_WeightedAverage(t *testing.T) {
	h := Holding{Ticker: "RELI", Qty: 10, AvgPrice: d("2500")}

	merged := h.MergeBuy(5, d("2600"))

	if merged.Qty != 15 {
		t.Fatalf("expected qty=15, got %d", merged.Qty)
	}
	// (10*2500 + 5*2600) / 15 = 38000/15 = 2533.33...
	want := d("38000").Div(d("15"))
	if !merged.AvgPrice.Equal(want) {
		t.Errorf("expected avg=%s, got %s", want, merged.AvgPrice)
	}

	// Receiver untouched
	if h.Qty != 10 || !h.AvgPrice.Equal(d("2500")) {
		t.Errorf("receiver mutated: %+v", h)
	}
}

func TestHolding_MergeBuy_SamePrice(t *testing.T) {
	h := Holding{Ticker: "TCS", Qty: 3, AvgPrice: d("3600")}
	merged := h.MergeBuy(7, d("3600"))
	if merged.Qty != 10 || !merged.AvgPrice.Equal(d("3600")) {
		t.Errorf("expected qty=10 avg=3600, got %+v", merged)
	}
}

func TestHolding_MarketValue(t *testing.T) {
	h := Holding{Ticker: "INFY", Qty: 4, AvgPrice: d("1450")}
	if mv := h.MarketValue(d("1500.50")); !mv.Equal(d("6002.00")) {
		t.Errorf("expected 6002.00, got %s", mv)
	}
}

func TestQuote_ChangePercent(t *testing.T) {
	q := Quote{Ticker: "HDFC", Price: d("1530"), PrevPrice: d("1500")}
	if got := q.ChangePercent(); !got.Equal(d("0.02")) {
		t.Errorf("expected 0.02, got %s", got)
	}

	q = Quote{Ticker: "HDFC", Price: d("1500"), PrevPrice: decimal.Zero}
	if got := q.ChangePercent(); !got.IsZero() {
		t.Errorf("expected 0 for zero prev price, got %s", got)
	}
}

func TestNewTransaction_DerivedValue(t *testing.T) {
	tx := NewTransaction(SideSell, "RELI", 4, d("2550"), timeNowFixed())
	if !tx.Value.Equal(d("10200")) {
		t.Errorf("expected value=10200, got %s", tx.Value)
	}
}
