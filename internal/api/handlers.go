package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"stocksim/internal/gateway"
	"stocksim/internal/market"
	"stocksim/internal/model"
	"stocksim/internal/portfolio"
	"stocksim/internal/snapshot"
)

var hundred = decimal.NewFromInt(100)

type quoteView struct {
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

type holdingView struct {
	Ticker      string          `json:"ticker"`
	Qty         int64           `json:"qty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	MarketPrice decimal.Decimal `json:"market_price"`
	MarketValue decimal.Decimal `json:"market_value"`
}

type portfolioView struct {
	Cash        decimal.Decimal `json:"cash"`
	MarketValue decimal.Decimal `json:"market_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Holdings    []holdingView   `json:"holdings"`
}

type tradeRequest struct {
	Side   string `json:"side"`
	Ticker string `json:"ticker"`
	Qty    int64  `json:"qty"`
}

type tradeResponse struct {
	Transaction model.Transaction `json:"transaction"`
	Cash        decimal.Decimal   `json:"cash"`
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	quotes := s.Market.All()
	views := make([]quoteView, 0, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		views = append(views, quoteView{
			Ticker:    q.Ticker,
			Name:      q.Name,
			Price:     q.Price,
			ChangePct: q.ChangePercent().Mul(hundred).Round(2),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	view := portfolioView{
		Cash:        s.Portfolio.Cash(),
		MarketValue: decimal.Zero,
		Holdings:    []holdingView{},
	}
	for _, h := range s.Portfolio.Holdings() {
		price := decimal.Zero
		if q, ok := s.Market.Get(h.Ticker); ok {
			price = q.Price
		}
		value := h.MarketValue(price)
		view.MarketValue = view.MarketValue.Add(value)
		view.Holdings = append(view.Holdings, holdingView{
			Ticker:      h.Ticker,
			Qty:         h.Qty,
			AvgPrice:    h.AvgPrice,
			MarketPrice: price,
			MarketValue: value,
		})
	}
	view.TotalValue = view.Cash.Add(view.MarketValue)
	writeJSON(w, http.StatusOK, view)
}

// handleTransactions serves the trade log newest-first, the order the
// display contract promises.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.Portfolio.TransactionsNewestFirst())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.Portfolio.History())
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.rejectTrade(w, http.StatusBadRequest, "invalid_request", "body must be JSON with side, ticker, qty")
		return
	}

	side := model.Side(strings.ToUpper(strings.TrimSpace(req.Side)))
	if side != model.SideBuy && side != model.SideSell {
		s.rejectTrade(w, http.StatusBadRequest, "invalid_side", "side must be BUY or SELL")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		s.rejectTrade(w, http.StatusBadRequest, "invalid_ticker", "ticker is required")
		return
	}
	if req.Qty <= 0 {
		s.rejectTrade(w, http.StatusBadRequest, "invalid_quantity", portfolio.ErrInvalidQuantity.Error())
		return
	}

	// Quote-then-execute: resolve the current price, then trade at it.
	// The ledger does not re-fetch, so this is the price the trade fills at.
	quote, ok := s.Market.Get(ticker)
	if !ok {
		s.rejectTrade(w, http.StatusNotFound, "unknown_ticker", market.ErrUnknownTicker.Error())
		return
	}

	var (
		txn model.Transaction
		err error
	)
	if side == model.SideBuy {
		txn, err = s.Portfolio.Buy(ticker, req.Qty, quote.Price)
	} else {
		txn, err = s.Portfolio.Sell(ticker, req.Qty, quote.Price)
	}
	if err != nil {
		switch {
		case errors.Is(err, portfolio.ErrInvalidQuantity), errors.Is(err, portfolio.ErrInvalidPrice):
			s.rejectTrade(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		case errors.Is(err, portfolio.ErrInsufficientFunds):
			s.rejectTrade(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
		case errors.Is(err, portfolio.ErrInsufficientHoldings):
			s.rejectTrade(w, http.StatusUnprocessableEntity, "insufficient_holdings", err.Error())
		default:
			s.rejectTrade(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}

	if s.Metrics != nil {
		s.Metrics.TradesTotal.WithLabelValues(string(txn.Side)).Inc()
	}
	if s.Journal != nil {
		if jerr := s.Journal.Record(txn); jerr != nil {
			if s.Metrics != nil {
				s.Metrics.JournalErrors.Inc()
			}
			s.logger().Warn("journal write failed", slog.Any("error", jerr))
		}
	}
	s.broadcast("trade")

	s.logger().Info("trade executed",
		slog.String("side", string(txn.Side)),
		slog.String("ticker", txn.Ticker),
		slog.Int64("qty", txn.Qty),
		slog.String("price", txn.Price.String()),
	)
	writeJSON(w, http.StatusOK, tradeResponse{Transaction: txn, Cash: s.Portfolio.Cash()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	cash, holdings := s.Portfolio.Snapshot()
	if err := s.Snapshots.Save(cash, holdings); err != nil {
		s.logger().Error("snapshot save failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "storage_unavailable", err.Error())
		return
	}
	if s.Metrics != nil {
		s.Metrics.SnapshotSaves.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": s.Snapshots.Path()})
}

// handleLoad restores the portfolio from the snapshot file. The current
// in-memory state survives untouched unless the whole payload validates.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	cash, holdings, err := s.Snapshots.Load()
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrMalformed):
			writeError(w, http.StatusUnprocessableEntity, "malformed_snapshot", err.Error())
		case errors.Is(err, snapshot.ErrStorageUnavailable):
			writeError(w, http.StatusBadGateway, "storage_unavailable", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		s.logger().Error("snapshot load failed", slog.Any("error", err))
		return
	}

	s.Portfolio.Restore(cash, holdings)
	if s.Metrics != nil {
		s.Metrics.SnapshotLoads.Inc()
	}
	s.broadcast("trade")

	s.logger().Info("portfolio restored",
		slog.String("cash", cash.String()),
		slog.Int("holdings", len(holdings)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"cash":     cash,
		"holdings": len(holdings),
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal_disabled", "trade journal is not configured")
		return
	}
	entries, err := s.Journal.Recent(100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) rejectTrade(w http.ResponseWriter, status int, reason, detail string) {
	if s.Metrics != nil {
		s.Metrics.TradesRejected.WithLabelValues(reason).Inc()
	}
	writeError(w, status, reason, detail)
}

func (s *Server) broadcast(frameType string) {
	if s.Hub == nil {
		return
	}
	if frame, err := gateway.BuildFrame(frameType, s.Market, s.Portfolio); err == nil {
		s.Hub.Broadcast(frame)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
}
