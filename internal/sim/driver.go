// Package sim runs the periodic simulation loop: advance the market,
// sample the portfolio value, then push the updated state to whoever is
// listening. One tick is short and non-blocking, so cancellation simply
// stops scheduling further ticks — nothing is ever left half-applied.
package sim

import (
	"context"
	"log"
	"time"

	"stocksim/internal/gateway"
	"stocksim/internal/market"
	"stocksim/internal/metrics"
	"stocksim/internal/model"
	"stocksim/internal/portfolio"
)

const defaultInterval = time.Second

// Broadcaster receives the frame built after each tick.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// QuotePublisher receives the stepped quotes after each tick.
type QuotePublisher interface {
	PublishQuotes(ctx context.Context, quotes []model.Quote)
}

// Config holds driver settings.
type Config struct {
	// Interval between ticks. Defaults to one second, the cadence the
	// sandbox was designed around.
	Interval time.Duration
}

// Driver owns the tick loop. Hub, publisher, metrics, and health are all
// optional.
type Driver struct {
	cfg       Config
	market    *market.Market
	portfolio *portfolio.Portfolio

	hub       Broadcaster
	publisher QuotePublisher
	prom      *metrics.Metrics
	health    *metrics.HealthStatus
}

// New creates a Driver. market and portfolio are required.
func New(cfg Config, m *market.Market, p *portfolio.Portfolio) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Driver{cfg: cfg, market: m, portfolio: p}
}

// WithHub attaches a frame broadcaster.
func (d *Driver) WithHub(h Broadcaster) *Driver {
	d.hub = h
	return d
}

// WithPublisher attaches a quote publisher.
func (d *Driver) WithPublisher(p QuotePublisher) *Driver {
	d.publisher = p
	return d
}

// WithMetrics attaches Prometheus metrics and health reporting.
func (d *Driver) WithMetrics(m *metrics.Metrics, h *metrics.HealthStatus) *Driver {
	d.prom = m
	d.health = h
	return d
}

// Run ticks until ctx is cancelled. Blocks.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	log.Printf("[sim] driver started, interval=%s", d.cfg.Interval)
	if d.health != nil {
		d.health.SetDriverRunning(true)
	}
	defer func() {
		if d.health != nil {
			d.health.SetDriverRunning(false)
		}
		log.Println("[sim] driver stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	start := time.Now()

	d.market.Step()
	d.portfolio.RecordHistory(d.market)

	if d.prom != nil {
		d.prom.TicksTotal.Inc()
		d.prom.PortfolioValue.Set(d.portfolio.TotalValue(d.market).InexactFloat64())
		d.prom.HistoryLen.Set(float64(len(d.portfolio.History())))
	}
	if d.health != nil {
		d.health.SetLastTickTime(start)
	}

	if d.hub != nil {
		if frame, err := gateway.BuildFrame("tick", d.market, d.portfolio); err == nil {
			d.hub.Broadcast(frame)
		}
	}
	if d.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		d.publisher.PublishQuotes(pubCtx, d.market.All())
		cancel()
	}

	if d.prom != nil {
		d.prom.StepDur.Observe(time.Since(start).Seconds())
	}
}
