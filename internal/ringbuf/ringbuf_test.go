package ringbuf

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dv(i int) decimal.Decimal { return decimal.NewFromInt(int64(i)) }

func TestSeries_BasicPushValues(t *testing.T) {
	s := New(4)

	s.Push(dv(1))
	s.Push(dv(2))

	if s.Len() != 2 {
		t.Fatalf("expected len=2, got %d", s.Len())
	}

	vals := s.Values()
	if len(vals) != 2 || !vals[0].Equal(dv(1)) || !vals[1].Equal(dv(2)) {
		t.Fatalf("unexpected values: %v", vals)
	}

	latest, ok := s.Latest()
	if !ok || !latest.Equal(dv(2)) {
		t.Fatalf("expected latest=2, got %s ok=%v", latest, ok)
	}
}

func TestSeries_EvictOldest(t *testing.T) {
	s := New(3)

	for i := 1; i <= 5; i++ {
		s.Push(dv(i))
	}

	if s.Len() != 3 {
		t.Fatalf("expected len=3, got %d", s.Len())
	}
	if s.Evicted() != 2 {
		t.Fatalf("expected evicted=2, got %d", s.Evicted())
	}

	vals := s.Values()
	want := []int{3, 4, 5}
	for i, w := range want {
		if !vals[i].Equal(dv(w)) {
			t.Errorf("values[%d]: expected %d, got %s", i, w, vals[i])
		}
	}
}

func TestSeries_Wraparound(t *testing.T) {
	s := New(4)

	// Push and drain far past capacity several times over to exercise
	// the head wrapping around the backing array.
	for i := 1; i <= 25; i++ {
		s.Push(dv(i))
		vals := s.Values()
		n := i
		if n > 4 {
			n = 4
		}
		if len(vals) != n {
			t.Fatalf("push %d: expected %d values, got %d", i, n, len(vals))
		}
		for j, v := range vals {
			want := i - n + 1 + j
			if !v.Equal(dv(want)) {
				t.Fatalf("push %d: values[%d]=%s, want %d", i, j, v, want)
			}
		}
	}
}

func TestSeries_Clear(t *testing.T) {
	s := New(2)
	s.Push(dv(1))
	s.Push(dv(2))
	s.Push(dv(3))

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty after clear, got len=%d", s.Len())
	}
	if _, ok := s.Latest(); ok {
		t.Fatal("latest on empty series should return false")
	}

	// Reusable after clear
	s.Push(dv(9))
	vals := s.Values()
	if len(vals) != 1 || !vals[0].Equal(dv(9)) {
		t.Fatalf("unexpected values after clear: %v", vals)
	}
}

func TestSeries_MinimumCapacity(t *testing.T) {
	s := New(0)
	if s.Cap() != 1 {
		t.Fatalf("expected cap=1, got %d", s.Cap())
	}
	s.Push(dv(1))
	s.Push(dv(2))
	latest, _ := s.Latest()
	if !latest.Equal(dv(2)) {
		t.Fatalf("expected latest=2, got %s", latest)
	}
}
