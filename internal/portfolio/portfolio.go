// Package portfolio is the accounting ledger of the sandbox: cash,
// holdings with weighted-average cost, the transaction log, and a bounded
// time series of total portfolio value.
//
// All mutating and composite-read operations are serialized under one
// lock so check-then-act sequences (enough cash? then debit) never
// interleave. The market is never held as a field — valuation methods
// take a Pricer parameter and associate the two only at query time.
package portfolio

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
	"stocksim/internal/ringbuf"
)

// DefaultHistoryCap is the number of total-value samples retained.
const DefaultHistoryCap = 500

// Pricer supplies current market prices during valuation. Satisfied by
// *market.Market.
type Pricer interface {
	Get(ticker string) (model.Quote, bool)
}

// Portfolio tracks cash, holdings, executed transactions, and the
// portfolio value history.
type Portfolio struct {
	mu           sync.RWMutex
	cash         decimal.Decimal
	holdings     map[string]*model.Holding
	order        []string // holding insertion order, for stable display
	transactions []model.Transaction
	history      *ringbuf.Series

	now func() time.Time // test hook
}

// New creates a portfolio with the given starting cash and records the
// initial value sample. historyCap <= 0 means DefaultHistoryCap.
func New(startingCash decimal.Decimal, historyCap int) *Portfolio {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	p := &Portfolio{
		cash:     startingCash,
		holdings: make(map[string]*model.Holding),
		history:  ringbuf.New(historyCap),
		now:      time.Now,
	}
	p.history.Push(startingCash)
	return p
}

// Buy executes a market buy of qty units at the caller-supplied price.
// The price is typically the market's quote at call time; the ledger does
// not re-fetch it. Fails without side effects on invalid quantity or
// insufficient cash.
func (p *Portfolio) Buy(ticker string, qty int64, price decimal.Decimal) (model.Transaction, error) {
	if qty <= 0 {
		return model.Transaction{}, fmt.Errorf("buy %s: qty=%d: %w", ticker, qty, ErrInvalidQuantity)
	}
	if !price.IsPositive() {
		return model.Transaction{}, fmt.Errorf("buy %s: price=%s: %w", ticker, price, ErrInvalidPrice)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cost := price.Mul(decimal.NewFromInt(qty))
	if cost.GreaterThan(p.cash) {
		return model.Transaction{}, fmt.Errorf("buy %d %s: cost %s exceeds cash %s: %w",
			qty, ticker, cost, p.cash, ErrInsufficientFunds)
	}

	if h, ok := p.holdings[ticker]; ok {
		merged := h.MergeBuy(qty, price)
		*h = merged
	} else {
		p.holdings[ticker] = &model.Holding{Ticker: ticker, Qty: qty, AvgPrice: price}
		p.order = append(p.order, ticker)
	}
	p.cash = p.cash.Sub(cost)

	txn := model.NewTransaction(model.SideBuy, ticker, qty, price, p.now())
	p.transactions = append(p.transactions, txn)
	return txn, nil
}

// Sell executes a market sell of qty units at the caller-supplied price.
// The holding's average cost is never changed by a sell; a holding that
// reaches zero quantity is removed. Fails without side effects when the
// held quantity is insufficient.
func (p *Portfolio) Sell(ticker string, qty int64, price decimal.Decimal) (model.Transaction, error) {
	if qty <= 0 {
		return model.Transaction{}, fmt.Errorf("sell %s: qty=%d: %w", ticker, qty, ErrInvalidQuantity)
	}
	if !price.IsPositive() {
		return model.Transaction{}, fmt.Errorf("sell %s: price=%s: %w", ticker, price, ErrInvalidPrice)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.holdings[ticker]
	if !ok || h.Qty < qty {
		held := int64(0)
		if ok {
			held = h.Qty
		}
		return model.Transaction{}, fmt.Errorf("sell %d %s: held %d: %w",
			qty, ticker, held, ErrInsufficientHoldings)
	}

	h.Qty -= qty
	if h.Qty == 0 {
		p.removeHolding(ticker)
	}
	p.cash = p.cash.Add(price.Mul(decimal.NewFromInt(qty)))

	txn := model.NewTransaction(model.SideSell, ticker, qty, price, p.now())
	p.transactions = append(p.transactions, txn)
	return txn, nil
}

// CanSell reports whether a holding exists with at least qty units.
// Callers may pre-validate with it, but Sell enforces the same rule
// itself.
func (p *Portfolio) CanSell(ticker string, qty int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.holdings[ticker]
	return ok && h.Qty >= qty
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// Holdings returns an independent snapshot in insertion order.
func (p *Portfolio) Holdings() []model.Holding {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Holding, 0, len(p.order))
	for _, ticker := range p.order {
		out = append(out, *p.holdings[ticker])
	}
	return out
}

// MarketValue returns the mark-to-market value of all holdings at the
// pricer's current prices. A ticker the pricer no longer knows (delisted)
// contributes zero rather than an error.
func (p *Portfolio) MarketValue(m Pricer) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.marketValueLocked(m)
}

// TotalValue returns cash plus mark-to-market value of all holdings.
func (p *Portfolio) TotalValue(m Pricer) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := p.cash
	if m != nil {
		total = total.Add(p.marketValueLocked(m))
	}
	return total
}

func (p *Portfolio) marketValueLocked(m Pricer) decimal.Decimal {
	mv := decimal.Zero
	if m == nil {
		return mv
	}
	for _, ticker := range p.order {
		q, ok := m.Get(ticker)
		if !ok {
			continue
		}
		mv = mv.Add(p.holdings[ticker].MarketValue(q.Price))
	}
	return mv
}

// RecordHistory samples cash + market value into the bounded history
// series. A nil pricer values holdings at zero (used at construction and
// after a restore, before any market is associated).
func (p *Portfolio) RecordHistory(m Pricer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := p.cash
	if m != nil {
		total = total.Add(p.marketValueLocked(m))
	}
	p.history.Push(total)
}

// History returns an independent snapshot of value samples, oldest first.
func (p *Portfolio) History() []decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history.Values()
}

// ClearHistory empties the value series so samples from before a state
// replacement never mix with samples after it.
func (p *Portfolio) ClearHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.Clear()
}

// Transactions returns an independent snapshot in chronological order.
func (p *Portfolio) Transactions() []model.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Transaction, len(p.transactions))
	copy(out, p.transactions)
	return out
}

// TransactionsNewestFirst returns an independent snapshot ordered
// newest-first, the order display surfaces expect.
func (p *Portfolio) TransactionsNewestFirst() []model.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Transaction, len(p.transactions))
	for i, txn := range p.transactions {
		out[len(out)-1-i] = txn
	}
	return out
}

// Snapshot returns cash and holdings from a single consistent view, for
// the persistence collaborator.
func (p *Portfolio) Snapshot() (decimal.Decimal, []model.Holding) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Holding, 0, len(p.order))
	for _, ticker := range p.order {
		out = append(out, *p.holdings[ticker])
	}
	return p.cash, out
}

// SetCash replaces the cash balance directly. Restore-only: it bypasses
// trade validation and must not be used mid-session.
func (p *Portfolio) SetCash(cash decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = cash
}

// SetHolding upserts a holding directly, bypassing trade validation.
// Restore-only. A non-positive quantity removes the holding.
func (p *Portfolio) SetHolding(h model.Holding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setHoldingLocked(h)
}

func (p *Portfolio) setHoldingLocked(h model.Holding) {
	if h.Qty <= 0 {
		if _, ok := p.holdings[h.Ticker]; ok {
			p.removeHolding(h.Ticker)
		}
		return
	}
	if existing, ok := p.holdings[h.Ticker]; ok {
		*existing = h
		return
	}
	cp := h
	p.holdings[h.Ticker] = &cp
	p.order = append(p.order, h.Ticker)
}

// Restore replaces the entire portfolio state with the given cash and
// holdings, and leaves the transaction log and history empty so a new
// epoch starts clean. It is a full restore, not a merge.
func (p *Portfolio) Restore(cash decimal.Decimal, holdings []model.Holding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = cash
	p.holdings = make(map[string]*model.Holding, len(holdings))
	p.order = p.order[:0]
	for _, h := range holdings {
		p.setHoldingLocked(h)
	}
	p.transactions = nil
	p.history.Clear()
}

func (p *Portfolio) removeHolding(ticker string) {
	delete(p.holdings, ticker)
	for i, t := range p.order {
		if t == ticker {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}
