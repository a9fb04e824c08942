package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Transaction is an immutable record of one executed trade.
type Transaction struct {
	Side       Side            `json:"side"`
	Ticker     string          `json:"ticker"`
	Qty        int64           `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	Value      decimal.Decimal `json:"value"` // price x qty
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewTransaction builds a trade record with its derived value.
func NewTransaction(side Side, ticker string, qty int64, price decimal.Decimal, at time.Time) Transaction {
	return Transaction{
		Side:       side,
		Ticker:     ticker,
		Qty:        qty,
		Price:      price,
		Value:      price.Mul(decimal.NewFromInt(qty)),
		ExecutedAt: at,
	}
}
