// Package metrics holds Prometheus metrics and the health endpoint for
// the sandbox service.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the simulation engine.
type Metrics struct {
	TicksTotal     prometheus.Counter
	StepDur        prometheus.Histogram
	TradesTotal    *prometheus.CounterVec // labels: side
	TradesRejected *prometheus.CounterVec // labels: reason
	SnapshotSaves  prometheus.Counter
	SnapshotLoads  prometheus.Counter
	JournalErrors  prometheus.Counter
	PortfolioValue prometheus.Gauge
	HistoryLen     prometheus.Gauge
	WSClients      prometheus.Gauge
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_ticks_total",
			Help: "Total market price steps executed",
		}),
		StepDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stocksim_step_duration_seconds",
			Help:    "Duration of one tick (step + history + publish)",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksim_trades_total",
			Help: "Executed trades by side",
		}, []string{"side"}),
		TradesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksim_trades_rejected_total",
			Help: "Rejected trades by reason",
		}, []string{"reason"}),
		SnapshotSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_snapshot_saves_total",
			Help: "Portfolio snapshot saves",
		}),
		SnapshotLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_snapshot_loads_total",
			Help: "Portfolio snapshot loads",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_journal_errors_total",
			Help: "Failed trade journal writes",
		}),
		PortfolioValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stocksim_portfolio_value",
			Help: "Current total portfolio value (cash + mark-to-market)",
		}),
		HistoryLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stocksim_history_len",
			Help: "Current number of portfolio value samples retained",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stocksim_ws_clients",
			Help: "Connected WebSocket display clients",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.StepDur,
		m.TradesTotal,
		m.TradesRejected,
		m.SnapshotSaves,
		m.SnapshotLoads,
		m.JournalErrors,
		m.PortfolioValue,
		m.HistoryLen,
		m.WSClients,
	)

	return m
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	DriverRunning  bool      `json:"driver_running"`
	LastTickTime   time.Time `json:"last_tick_time"`
	JournalOK      bool      `json:"journal_ok"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`

	JournalLatencyMs float64   `json:"journal_latency_ms"`
	RedisLatencyMs   float64   `json:"redis_latency_ms"`
	LastCheckAt      time.Time `json:"last_check_at"`
	StartedAt        time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetDriverRunning(v bool) {
	h.mu.Lock()
	h.DriverRunning = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetJournalOK(v bool) {
	h.mu.Lock()
	h.JournalOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

// CheckJournal pings the journal database and records latency + health.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.JournalOK = err == nil
	h.JournalLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx ends.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckJournal(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. Redis only degrades health
// when it was enabled in the first place.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.DriverRunning || !h.JournalOK || (h.RedisEnabled && !h.RedisConnected) {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status           string  `json:"status"`
		Uptime           string  `json:"uptime"`
		DriverRunning    bool    `json:"driver_running"`
		LastTickTime     string  `json:"last_tick_time"`
		TickAge          string  `json:"tick_age"`
		JournalOK        bool    `json:"journal_ok"`
		JournalLatencyMs float64 `json:"journal_latency_ms"`
		RedisEnabled     bool    `json:"redis_enabled"`
		RedisConnected   bool    `json:"redis_connected"`
		RedisLatencyMs   float64 `json:"redis_latency_ms"`
		LastCheckAt      string  `json:"last_check_at"`
	}{
		Status:           overallStatus,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		DriverRunning:    h.DriverRunning,
		LastTickTime:     h.LastTickTime.Format(time.RFC3339),
		TickAge:          tickAge,
		JournalOK:        h.JournalOK,
		JournalLatencyMs: h.JournalLatencyMs,
		RedisEnabled:     h.RedisEnabled,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv:    &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
