// cmd/simd — single-user stock-trading sandbox daemon.
//
// Runs the synthetic market and portfolio ledger, ticks prices once per
// interval, and exposes the engine over HTTP (+ WebSocket stream) for
// display clients. Trades always execute at the market's current quote.
//
// Config (env vars):
//
//	STARTING_CASH     — initial cash balance        (default: "100000")
//	CATALOG           — TICKER:Name:Price triples   (default: six NSE names)
//	TICK_INTERVAL_MS  — market step interval        (default: "1000")
//	HISTORY_CAP       — value samples retained      (default: "500")
//	RNG_SEED          — price walk seed, 0 = time   (default: "0")
//	HTTP_ADDR         — API listen address          (default: ":8080")
//	METRICS_ADDR      — metrics listen address      (default: ":9090")
//	SQLITE_PATH       — trade journal database      (default: "data/journal.db")
//	SNAPSHOT_PATH     — portfolio snapshot file     (default: "data/portfolio.csv")
//	REDIS_ADDR        — quote PubSub, "" = disabled (default: "")
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stocksim/config"
	"stocksim/internal/api"
	"stocksim/internal/gateway"
	"stocksim/internal/journal"
	"stocksim/internal/logger"
	"stocksim/internal/market"
	"stocksim/internal/metrics"
	"stocksim/internal/portfolio"
	"stocksim/internal/sim"
	"stocksim/internal/snapshot"
	redisstore "stocksim/internal/store/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	slogger := logger.Init("simd", slog.LevelInfo)
	log.Println("[simd] starting...")

	cfg := config.Load()

	// ---- Build the engine ----
	instruments := cfg.ParseCatalog()
	if len(instruments) == 0 {
		log.Fatalf("[simd] no valid instruments in CATALOG")
	}
	mkt := market.New(instruments, cfg.RNGSeed)
	pf := portfolio.New(cfg.StartingCash, cfg.HistoryCap)
	log.Printf("[simd] market seeded with %d instruments, starting cash %s",
		mkt.Len(), cfg.StartingCash)

	// ---- Metrics & health ----
	prom := metrics.New()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Shutdown plumbing ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Trade journal ----
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Fatalf("[simd] create data dir: %v", err)
	}
	jnl, err := journal.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[simd] journal init failed: %v", err)
	}
	defer jnl.Close()
	health.SetJournalOK(true)

	// ---- Optional Redis quote publisher ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		publisher, err = redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[simd] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
		} else {
			defer publisher.Close()
			health.SetRedisConnected(true)
		}
	}

	// ---- Liveness checks ----
	if publisher != nil {
		health.StartLivenessChecker(ctx, publisher.Client(), jnl.DB(), 15*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, jnl.DB(), 15*time.Second)
	}

	// ---- WebSocket hub + tick driver ----
	hub := gateway.NewHub(prom)
	drv := sim.New(sim.Config{Interval: cfg.TickInterval}, mkt, pf).
		WithHub(hub).
		WithMetrics(prom, health)
	if publisher != nil {
		drv = drv.WithPublisher(publisher)
	}

	driverDone := make(chan struct{})
	go func() {
		drv.Run(ctx)
		close(driverDone)
	}()

	// ---- HTTP API ----
	apiSrv := &api.Server{
		Market:    mkt,
		Portfolio: pf,
		Snapshots: snapshot.NewStore(cfg.SnapshotPath),
		Journal:   jnl,
		Hub:       hub,
		Metrics:   prom,
		Log:       slogger,
	}
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewRouter(apiSrv)}
	go func() {
		log.Printf("[simd] api listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[simd] api server error: %v", err)
		}
	}()

	// ---- Wait for shutdown signal ----
	sig := <-sigCh
	log.Printf("[simd] received %s, shutting down...", sig)
	cancel()

	select {
	case <-driverDone:
	case <-time.After(5 * time.Second):
		log.Println("[simd] WARNING: driver did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	log.Println("[simd] shutdown complete")
}
