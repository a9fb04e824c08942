package snapshot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

// Store reads and writes portfolio snapshots at a fixed path. Writes go
// through a temp file and rename so a crashed save never leaves a
// half-written snapshot behind.
type Store struct {
	path string
}

// NewStore creates a store for the given snapshot path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Save writes cash and holdings to the snapshot file. Failures wrap
// ErrStorageUnavailable; the on-disk snapshot is either the old one or
// the new one, never a mix.
func (s *Store) Save(cash decimal.Decimal, holdings []model.Holding) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %v: %w", err, ErrStorageUnavailable)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, Encode(cash, holdings), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %v: %w", err, ErrStorageUnavailable)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit snapshot: %v: %w", err, ErrStorageUnavailable)
	}

	log.Printf("[snapshot] saved %d holdings to %s", len(holdings), s.path)
	return nil
}

// Load reads and decodes the snapshot file. Read failures wrap
// ErrStorageUnavailable; decode failures wrap ErrMalformed. Nothing is
// applied to any portfolio here — the caller restores on success.
func (s *Store) Load() (decimal.Decimal, []model.Holding, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return decimal.Decimal{}, nil, fmt.Errorf("read snapshot %s: %v: %w", s.path, err, ErrStorageUnavailable)
	}

	cash, holdings, err := Decode(data)
	if err != nil {
		return decimal.Decimal{}, nil, err
	}

	log.Printf("[snapshot] loaded %d holdings from %s", len(holdings), s.path)
	return cash, holdings, nil
}
