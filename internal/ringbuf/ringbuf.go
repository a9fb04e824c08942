// Package ringbuf provides a fixed-capacity, evict-oldest series of
// decimal samples. It backs the portfolio value history: appends past
// capacity overwrite the oldest sample so the cap is a hard invariant,
// not a cleanup step.
//
// Series is not safe for concurrent use; the owning Portfolio serializes
// access under its own lock.
package ringbuf

import "github.com/shopspring/decimal"

// Series is a bounded FIFO of decimal values.
type Series struct {
	buf     []decimal.Decimal
	head    int // index of the oldest sample
	size    int
	evicted uint64
}

// New creates a series with the given capacity. Minimum capacity is 1.
func New(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{buf: make([]decimal.Decimal, capacity)}
}

// Push appends a sample. When the series is full the oldest sample is
// evicted to make room.
func (s *Series) Push(v decimal.Decimal) {
	if s.size < len(s.buf) {
		s.buf[(s.head+s.size)%len(s.buf)] = v
		s.size++
		return
	}
	s.buf[s.head] = v
	s.head = (s.head + 1) % len(s.buf)
	s.evicted++
}

// Values returns a copy of the samples, oldest first.
func (s *Series) Values() []decimal.Decimal {
	out := make([]decimal.Decimal, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Latest returns the newest sample, or false if the series is empty.
func (s *Series) Latest() (decimal.Decimal, bool) {
	if s.size == 0 {
		return decimal.Decimal{}, false
	}
	return s.buf[(s.head+s.size-1)%len(s.buf)], true
}

// Clear empties the series. The eviction counter is preserved.
func (s *Series) Clear() {
	s.head = 0
	s.size = 0
}

// Len returns the current number of samples.
func (s *Series) Len() int { return s.size }

// Cap returns the series capacity.
func (s *Series) Cap() int { return len(s.buf) }

// Evicted returns the total number of samples dropped to make room.
func (s *Series) Evicted() uint64 { return s.evicted }
