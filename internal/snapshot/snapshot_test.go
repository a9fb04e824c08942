package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
	"stocksim/internal/portfolio"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEncode_Shape(t *testing.T) {
	out := string(Encode(d("85200.5"), []model.Holding{
		{Ticker: "reli", Qty: 6, AvgPrice: d("2500.25")},
		{Ticker: "TCS", Qty: 2, AvgPrice: d("3600")},
	}))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "cash,85200.5" {
		t.Errorf("cash line = %q", lines[0])
	}
	if lines[1] != "RELI,6,2500.25" {
		t.Errorf("holding line = %q (ticker must be upper-cased)", lines[1])
	}
	if lines[2] != "TCS,2,3600" {
		t.Errorf("holding line = %q", lines[2])
	}
}

func TestDecode_Valid(t *testing.T) {
	data := []byte("\nCASH,85200.50\n\nreli,6,2500.00\nTCS,2,3600\n\n")

	cash, holdings, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !cash.Equal(d("85200.50")) {
		t.Errorf("cash=%s", cash)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[0].Ticker != "RELI" || holdings[0].Qty != 6 || !holdings[0].AvgPrice.Equal(d("2500.00")) {
		t.Errorf("holding[0]=%+v", holdings[0])
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty payload", ""},
		{"holdings before cash", "RELI,6,2500\ncash,100\n"},
		{"unparsable cash", "cash,abc\n"},
		{"negative cash", "cash,-5\n"},
		{"cash field count", "cash,100,extra\n"},
		{"holding field count", "cash,100\nRELI,6\n"},
		{"non-numeric qty", "cash,100\nRELI,six,2500\n"},
		{"zero qty", "cash,100\nRELI,0,2500\n"},
		{"negative qty", "cash,100\nRELI,-2,2500\n"},
		{"bad avg price", "cash,100\nRELI,6,2500x\n"},
		{"negative avg price", "cash,100\nRELI,6,-2500\n"},
		{"empty ticker", "cash,100\n ,6,2500\n"},
		{"duplicate ticker", "cash,100\nRELI,6,2500\nreli,1,2400\n"},
	}

	for _, tc := range cases {
		_, _, err := Decode([]byte(tc.data))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tc.name, err)
		}
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	store := NewStore(path)

	p := portfolio.New(d("100000"), 0)
	p.Buy("RELI", 10, d("2500.00"))
	p.Buy("TCS", 2, d("3600.00"))
	p.Sell("RELI", 4, d("2550.00"))
	p.RecordHistory(nil)

	cash, holdings := p.Snapshot()
	if err := store.Save(cash, holdings); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	restored := portfolio.New(d("0"), 0)
	gotCash, gotHoldings, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	restored.Restore(gotCash, gotHoldings)

	if !restored.Cash().Equal(p.Cash()) {
		t.Errorf("cash: %s != %s", restored.Cash(), p.Cash())
	}

	want := p.Holdings()
	got := restored.Holdings()
	if len(got) != len(want) {
		t.Fatalf("holdings: %d != %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Ticker != want[i].Ticker || got[i].Qty != want[i].Qty ||
			!got[i].AvgPrice.Equal(want[i].AvgPrice) {
			t.Errorf("holding %d: %+v != %+v", i, got[i], want[i])
		}
	}

	if len(restored.Transactions()) != 0 {
		t.Error("transaction log must be empty after load")
	}
	if len(restored.History()) != 0 {
		t.Error("history must be empty after load")
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.csv"))
	_, _, err := store.Load()
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestStore_LoadMalformedKeepsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	if err := os.WriteFile(path, []byte("cash,100\nRELI,notanumber,2500\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := NewStore(path).Load()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if errors.Is(err, ErrStorageUnavailable) {
		t.Fatal("malformed data must be distinguishable from storage failure")
	}
}

func TestStore_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "portfolio.csv")
	store := NewStore(path)

	if err := store.Save(d("100"), nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
	// No stray temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after save")
	}
}
