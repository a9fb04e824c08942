package model

import "github.com/shopspring/decimal"

// Quote represents one tradable instrument in the simulated market.
// Prices are decimals rounded to 2 places (currency minor units).
type Quote struct {
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	PrevPrice decimal.Decimal `json:"prev_price"` // price before the last step
}

// ChangePercent returns the fractional price change since the previous step,
// e.g. 0.015 for +1.5%. Returns zero when there is no previous price.
func (q *Quote) ChangePercent() decimal.Decimal {
	if q.PrevPrice.IsZero() {
		return decimal.Zero
	}
	return q.Price.Sub(q.PrevPrice).Div(q.PrevPrice)
}
