// Package journal persists executed trades to SQLite for audit and
// display. It is an append-only side channel: a journal failure is logged
// by the caller and never rolls back the trade itself.
package journal

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stocksim/internal/model"
)

// Journal is a single-writer SQLite trade journal.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) the journal database at dbPath.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		side        TEXT NOT NULL,
		ticker      TEXT NOT NULL,
		qty         INTEGER NOT NULL,
		price       TEXT NOT NULL,
		value       TEXT NOT NULL,
		executed_at DATETIME NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
	CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Record appends one executed trade.
func (j *Journal) Record(txn model.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (side, ticker, qty, price, value, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(txn.Side),
		txn.Ticker,
		txn.Qty,
		txn.Price.String(),
		txn.Value.String(),
		txn.ExecutedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Entry is one journaled trade row.
type Entry struct {
	ID         int64  `json:"id"`
	Side       string `json:"side"`
	Ticker     string `json:"ticker"`
	Qty        int64  `json:"qty"`
	Price      string `json:"price"`
	Value      string `json:"value"`
	ExecutedAt string `json:"executed_at"`
}

// Recent returns the last limit trades, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, side, ticker, qty, price, value, executed_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Side, &e.Ticker, &e.Qty, &e.Price, &e.Value, &e.ExecutedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
