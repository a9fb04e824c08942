package portfolio

import "errors"

// Trade validation errors. Callers test with errors.Is; every rejection
// leaves the portfolio byte-for-byte unchanged.
var (
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrInsufficientFunds    = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)
