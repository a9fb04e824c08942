package gateway

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/market"
	"stocksim/internal/portfolio"
)

// Frame is the JSON message pushed to display clients. One frame carries
// the full read surface so clients never need request/response logic.
type Frame struct {
	Type      string         `json:"type"` // "tick" or "trade"
	At        time.Time      `json:"at"`
	Market    []QuoteFrame   `json:"market"`
	Portfolio PortfolioFrame `json:"portfolio"`
}

// QuoteFrame is one instrument row: ticker, name, price, percent change.
type QuoteFrame struct {
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"` // percent, 2 decimals
}

// HoldingFrame is one portfolio row with its mark-to-market value.
type HoldingFrame struct {
	Ticker      string          `json:"ticker"`
	Qty         int64           `json:"qty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	MarketPrice decimal.Decimal `json:"market_price"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// PortfolioFrame summarizes cash, holdings, and total value.
type PortfolioFrame struct {
	Cash        decimal.Decimal `json:"cash"`
	MarketValue decimal.Decimal `json:"market_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Holdings    []HoldingFrame  `json:"holdings"`
}

var hundred = decimal.NewFromInt(100)

// BuildFrame assembles the frame for the current market and portfolio
// state. frameType distinguishes periodic ticks from trade-driven pushes.
func BuildFrame(frameType string, m *market.Market, p *portfolio.Portfolio) ([]byte, error) {
	quotes := m.All()
	f := Frame{
		Type:   frameType,
		At:     time.Now().UTC(),
		Market: make([]QuoteFrame, 0, len(quotes)),
	}
	for i := range quotes {
		q := &quotes[i]
		f.Market = append(f.Market, QuoteFrame{
			Ticker:    q.Ticker,
			Name:      q.Name,
			Price:     q.Price,
			ChangePct: q.ChangePercent().Mul(hundred).Round(2),
		})
	}

	cash := p.Cash()
	mv := decimal.Zero
	for _, h := range p.Holdings() {
		price := decimal.Zero
		if q, ok := m.Get(h.Ticker); ok {
			price = q.Price
		}
		value := h.MarketValue(price)
		mv = mv.Add(value)
		f.Portfolio.Holdings = append(f.Portfolio.Holdings, HoldingFrame{
			Ticker:      h.Ticker,
			Qty:         h.Qty,
			AvgPrice:    h.AvgPrice,
			MarketPrice: price,
			MarketValue: value,
		})
	}
	f.Portfolio.Cash = cash
	f.Portfolio.MarketValue = mv
	f.Portfolio.TotalValue = cash.Add(mv)

	return json.Marshal(f)
}
