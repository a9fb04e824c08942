// Package market owns the catalog of simulated instruments and advances
// their prices with a random-walk step, the same +/-1.5% per-tick walk the
// demo tick generator uses.
package market

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

// ErrUnknownTicker is returned when a requested ticker is not in the catalog.
var ErrUnknownTicker = errors.New("unknown ticker")

// priceFloor: a step that would push a price to or below this value is
// discarded and the instrument is left untouched for that tick.
var priceFloor = decimal.New(1, -2) // 0.01

// Market is an insertion-ordered catalog of quotes plus the RNG that
// drives price steps. The catalog is fixed after construction.
type Market struct {
	mu     sync.RWMutex
	quotes map[string]*model.Quote
	order  []string
	rng    *rand.Rand
}

// New seeds a market from the given instruments. Each instrument starts
// with its seed price as both current and previous price. Duplicate
// tickers keep the first occurrence. seed==0 means time-seeded.
func New(instruments []model.Quote, seed int64) *Market {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := &Market{
		quotes: make(map[string]*model.Quote, len(instruments)),
		rng:    rand.New(rand.NewSource(seed)),
	}
	for _, in := range instruments {
		if _, dup := m.quotes[in.Ticker]; dup {
			continue
		}
		q := in
		q.Price = q.Price.Round(2)
		q.PrevPrice = q.Price
		m.quotes[q.Ticker] = &q
		m.order = append(m.order, q.Ticker)
	}
	return m
}

// Step advances every instrument by one tick: draw a uniform percentage in
// [-1.5, +1.5], apply it multiplicatively and round to 2 decimals. A step
// that would land at or below the price floor is a no-op for that
// instrument — current and previous price both stay put.
func (m *Market) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ticker := range m.order {
		q := m.quotes[ticker]
		pct := m.rng.Float64()*3.0 - 1.5
		next := q.Price.Mul(decimal.NewFromFloat(1 + pct/100.0)).Round(2)
		if next.Cmp(priceFloor) <= 0 {
			continue
		}
		q.PrevPrice = q.Price
		q.Price = next
	}
}

// Get looks up a quote by exact ticker. The returned value is a copy.
func (m *Market) Get(ticker string) (model.Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[ticker]
	if !ok {
		return model.Quote{}, false
	}
	return *q, true
}

// All returns a snapshot of every quote in catalog insertion order.
func (m *Market) All() []model.Quote {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Quote, 0, len(m.order))
	for _, ticker := range m.order {
		out = append(out, *m.quotes[ticker])
	}
	return out
}

// Len returns the number of instruments in the catalog.
func (m *Market) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
