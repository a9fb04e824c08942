// Package api exposes the engine's read surface and command operations
// over HTTP. It is the boundary the presentation collaborators consume;
// the engine itself never renders anything.
package api

import (
	"log/slog"
	"net/http"

	"stocksim/internal/gateway"
	"stocksim/internal/journal"
	"stocksim/internal/market"
	"stocksim/internal/metrics"
	"stocksim/internal/portfolio"
	"stocksim/internal/snapshot"
)

// Server bundles the engine components the handlers operate on.
// Journal, Hub, and Metrics are optional and may be nil.
type Server struct {
	Market    *market.Market
	Portfolio *portfolio.Portfolio
	Snapshots *snapshot.Store
	Journal   *journal.Journal
	Hub       *gateway.Hub
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

// NewRouter sets up all HTTP routes.
func NewRouter(s *Server) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/market", s.handleMarket)
	mux.HandleFunc("/api/v1/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/v1/transactions", s.handleTransactions)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/trades", s.handleTrade)
	mux.HandleFunc("/api/v1/snapshot/save", s.handleSave)
	mux.HandleFunc("/api/v1/snapshot/load", s.handleLoad)
	mux.HandleFunc("/api/v1/journal", s.handleJournal)

	if s.Hub != nil {
		mux.HandleFunc("/ws", s.Hub.Handler())
	}

	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}
