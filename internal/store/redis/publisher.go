// Package redis publishes quote updates to Redis PubSub so external
// consumers (dashboards, recorders) can follow the simulated tape without
// touching the engine. Entirely optional: the sandbox runs fine with no
// Redis at all.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stocksim/internal/model"
)

// Channel pattern: pub:quote:<TICKER>
const quoteChannelPrefix = "pub:quote:"

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes per-ticker quote messages to Redis PubSub.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

type quoteMsg struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	PrevPrice string `json:"prev_price"`
	At        string `json:"at"`
}

// PublishQuotes sends one message per quote on its pub:quote:<TICKER>
// channel, pipelined. Errors are logged, not returned — a dead Redis must
// never stall the tick loop.
func (p *Publisher) PublishQuotes(ctx context.Context, quotes []model.Quote) {
	now := time.Now().UTC().Format(time.RFC3339)
	pipe := p.client.Pipeline()
	for _, q := range quotes {
		b, err := json.Marshal(quoteMsg{
			Ticker:    q.Ticker,
			Name:      q.Name,
			Price:     q.Price.String(),
			PrevPrice: q.PrevPrice.String(),
			At:        now,
		})
		if err != nil {
			continue
		}
		pipe.Publish(ctx, quoteChannelPrefix+q.Ticker, b)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] publish quotes: %v", err)
	}
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
