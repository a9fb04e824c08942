// Package snapshot implements the flat portfolio snapshot format and its
// file-backed store. The format is line-oriented with comma-separated
// fields, no header, no quoting:
//
//	cash,<decimal>
//	<TICKER>,<qty>,<avgPrice>
//	...
//
// Decode validates the whole payload before returning anything, so a
// caller can keep its prior in-memory state on any failure.
package snapshot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

var (
	// ErrMalformed means the payload violates the snapshot line shape or
	// contains unparsable fields.
	ErrMalformed = errors.New("malformed snapshot")

	// ErrStorageUnavailable means the underlying read or write failed.
	ErrStorageUnavailable = errors.New("snapshot storage unavailable")
)

// Encode renders cash and holdings in the snapshot format: cash first,
// then one line per holding with the ticker upper-cased.
func Encode(cash decimal.Decimal, holdings []model.Holding) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "cash,%s\n", cash)
	for _, h := range holdings {
		fmt.Fprintf(&b, "%s,%d,%s\n", strings.ToUpper(h.Ticker), h.Qty, h.AvgPrice)
	}
	return []byte(b.String())
}

// Decode parses a snapshot payload. The first meaningful line must be the
// cash record ("cash" is case-insensitive); every further non-blank line
// is one holding. All failures are reported with the offending line
// number and wrap ErrMalformed.
func Decode(data []byte) (decimal.Decimal, []model.Holding, error) {
	var (
		cash     decimal.Decimal
		holdings []model.Holding
		seen     = make(map[string]bool)
		sawCash  bool
	)

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lineNo := i + 1
		fields := strings.Split(line, ",")

		if !sawCash {
			if len(fields) != 2 || !strings.EqualFold(fields[0], "cash") {
				return decimal.Decimal{}, nil, fmt.Errorf("line %d: expected cash record: %w", lineNo, ErrMalformed)
			}
			c, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
			if err != nil {
				return decimal.Decimal{}, nil, fmt.Errorf("line %d: bad cash value %q: %w", lineNo, fields[1], ErrMalformed)
			}
			if c.IsNegative() {
				return decimal.Decimal{}, nil, fmt.Errorf("line %d: negative cash %s: %w", lineNo, c, ErrMalformed)
			}
			cash = c
			sawCash = true
			continue
		}

		h, err := parseHolding(fields)
		if err != nil {
			return decimal.Decimal{}, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if seen[h.Ticker] {
			return decimal.Decimal{}, nil, fmt.Errorf("line %d: duplicate ticker %s: %w", lineNo, h.Ticker, ErrMalformed)
		}
		seen[h.Ticker] = true
		holdings = append(holdings, h)
	}

	if !sawCash {
		return decimal.Decimal{}, nil, fmt.Errorf("no cash record: %w", ErrMalformed)
	}
	return cash, holdings, nil
}

func parseHolding(fields []string) (model.Holding, error) {
	if len(fields) != 3 {
		return model.Holding{}, fmt.Errorf("expected ticker,qty,avgPrice: %w", ErrMalformed)
	}

	ticker := strings.ToUpper(strings.TrimSpace(fields[0]))
	if ticker == "" {
		return model.Holding{}, fmt.Errorf("empty ticker: %w", ErrMalformed)
	}

	qty, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil || qty <= 0 {
		return model.Holding{}, fmt.Errorf("bad quantity %q: %w", fields[1], ErrMalformed)
	}

	avg, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil || avg.IsNegative() {
		return model.Holding{}, fmt.Errorf("bad average price %q: %w", fields[2], ErrMalformed)
	}

	return model.Holding{Ticker: ticker, Qty: qty, AvgPrice: avg}, nil
}
