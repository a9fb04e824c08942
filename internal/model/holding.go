package model

import "github.com/shopspring/decimal"

// Holding represents an owned position in one instrument.
// AvgPrice is the weighted-average purchase price across all buys that
// contributed to the current quantity; it never changes on a sell.
type Holding struct {
	Ticker   string          `json:"ticker"`
	Qty      int64           `json:"qty"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// MergeBuy returns the holding after buying qty more units at price,
// recomputing the weighted-average cost basis. Pure: the receiver is
// not modified.
func (h Holding) MergeBuy(qty int64, price decimal.Decimal) Holding {
	totalCost := h.AvgPrice.Mul(decimal.NewFromInt(h.Qty)).
		Add(price.Mul(decimal.NewFromInt(qty)))
	h.Qty += qty
	h.AvgPrice = totalCost.Div(decimal.NewFromInt(h.Qty))
	return h
}

// MarketValue returns qty x current market price.
func (h Holding) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(h.Qty))
}
