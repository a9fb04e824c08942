package market

import (
	"testing"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedQuotes() []model.Quote {
	return []model.Quote{
		{Ticker: "RELI", Name: "Reliance Industries", Price: d("2500")},
		{Ticker: "TCS", Name: "Tata Consultancy", Price: d("3600")},
		{Ticker: "INFY", Name: "Infosys", Price: d("1450")},
	}
}

func TestMarket_CatalogOrder(t *testing.T) {
	m := New(seedQuotes(), 1)

	all := m.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(all))
	}
	want := []string{"RELI", "TCS", "INFY"}
	for i, q := range all {
		if q.Ticker != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], q.Ticker)
		}
	}
}

func TestMarket_GetUnknownTicker(t *testing.T) {
	m := New(seedQuotes(), 1)
	if _, ok := m.Get("ZZZZ"); ok {
		t.Fatal("expected ok=false for unknown ticker")
	}
}

func TestMarket_SeedPriceIsPrevPrice(t *testing.T) {
	m := New(seedQuotes(), 1)
	q, ok := m.Get("RELI")
	if !ok {
		t.Fatal("RELI missing")
	}
	if !q.Price.Equal(q.PrevPrice) {
		t.Errorf("seed: price=%s prev=%s, expected equal", q.Price, q.PrevPrice)
	}
	if !q.ChangePercent().IsZero() {
		t.Errorf("seed change percent should be 0, got %s", q.ChangePercent())
	}
}

func TestMarket_StepMovesWithinBounds(t *testing.T) {
	m := New(seedQuotes(), 42)

	for i := 0; i < 200; i++ {
		before := m.All()
		m.Step()
		after := m.All()

		for j := range after {
			prev := before[j].Price
			cur := after[j].Price

			if cur.Exponent() < -2 {
				t.Fatalf("tick %d: %s price %s not rounded to 2 decimals",
					i, after[j].Ticker, cur)
			}
			// |change| <= 1.5% of prior price (plus rounding slack of half a paisa)
			limit := prev.Mul(d("0.015")).Add(d("0.005"))
			if cur.Sub(prev).Abs().GreaterThan(limit) {
				t.Fatalf("tick %d: %s moved %s -> %s, beyond +/-1.5%%",
					i, after[j].Ticker, prev, cur)
			}
			if !after[j].PrevPrice.Equal(prev) {
				t.Fatalf("tick %d: %s prev price %s, expected %s",
					i, after[j].Ticker, after[j].PrevPrice, prev)
			}
		}
	}
}

func TestMarket_PriceFloorIsNoOp(t *testing.T) {
	// At 0.01 every step rounds back to <= 0.01 and must be discarded:
	// neither current nor previous price may move, for any draw.
	m := New([]model.Quote{{Ticker: "PENY", Name: "Penny Co", Price: d("0.01")}}, 7)

	for i := 0; i < 500; i++ {
		m.Step()
		q, _ := m.Get("PENY")
		if !q.Price.Equal(d("0.01")) {
			t.Fatalf("tick %d: price moved off floor to %s", i, q.Price)
		}
		if !q.PrevPrice.Equal(d("0.01")) {
			t.Fatalf("tick %d: prev price moved to %s", i, q.PrevPrice)
		}
	}
}

func TestMarket_StepNeverNonPositive(t *testing.T) {
	m := New([]model.Quote{{Ticker: "LOW", Name: "Low Base", Price: d("0.02")}}, 99)
	for i := 0; i < 2000; i++ {
		m.Step()
		q, _ := m.Get("LOW")
		if q.Price.Cmp(d("0.01")) <= 0 {
			t.Fatalf("tick %d: stored price %s breaches the floor", i, q.Price)
		}
	}
}

func TestMarket_DeterministicWithSeed(t *testing.T) {
	a := New(seedQuotes(), 1234)
	b := New(seedQuotes(), 1234)
	for i := 0; i < 50; i++ {
		a.Step()
		b.Step()
	}
	qa := a.All()
	qb := b.All()
	for i := range qa {
		if !qa[i].Price.Equal(qb[i].Price) {
			t.Errorf("%s diverged: %s vs %s", qa[i].Ticker, qa[i].Price, qb[i].Price)
		}
	}
}

func TestMarket_DuplicateTickerKeepsFirst(t *testing.T) {
	m := New([]model.Quote{
		{Ticker: "RELI", Name: "First", Price: d("2500")},
		{Ticker: "RELI", Name: "Second", Price: d("9999")},
	}, 1)
	if m.Len() != 1 {
		t.Fatalf("expected 1 instrument, got %d", m.Len())
	}
	q, _ := m.Get("RELI")
	if q.Name != "First" || !q.Price.Equal(d("2500")) {
		t.Errorf("expected first occurrence kept, got %+v", q)
	}
}
