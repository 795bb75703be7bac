package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSignalIDsSurviveRestart(t *testing.T) {
	dir := t.TempDir()

	ids := NewSignalIDs(dir)
	var last int64
	for i := 0; i < 5; i++ {
		last = ids.Next()
	}
	if last != 5 {
		t.Fatalf("fifth id = %d, expected 5", last)
	}

	// Simulated crash: a fresh instance reads the persisted counter.
	restarted := NewSignalIDs(dir)
	if got := restarted.Next(); got != 6 {
		t.Fatalf("id after restart = %d, expected 6", got)
	}
}

func TestSignalIDsCorruptFileRestartsCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "id_state.json"), []byte("%%%"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	ids := NewSignalIDs(dir)
	if got := ids.Next(); got != 1 {
		t.Fatalf("first id from corrupt state = %d, expected 1", got)
	}
}

func TestDailyStatsTalliesAndReset(t *testing.T) {
	st := NewDailyStats()
	st.RecordTrade("EURUSD", true)
	st.RecordTrade("EURUSD", false)
	st.RecordTrade("GBPUSD", true)

	_, trades, wins, losses, top := st.Snapshot()
	if trades != 3 || wins != 2 || losses != 1 {
		t.Fatalf("tallies = %d/%d/%d, expected 3/2/1", trades, wins, losses)
	}
	if len(top) == 0 || top[0] != "EURUSD (2)" {
		t.Fatalf("top symbols = %v, expected EURUSD (2) first", top)
	}

	st.Reset()
	_, trades, wins, losses, top = st.Snapshot()
	if trades != 0 || wins != 0 || losses != 0 || len(top) != 0 {
		t.Fatalf("tallies after reset = %d/%d/%d/%v, expected zeros", trades, wins, losses, top)
	}
}

func TestSummaryWinRate(t *testing.T) {
	st := NewDailyStats()
	st.RecordTrade("EURUSD", true)
	st.RecordTrade("USDJPY", false)

	summary := st.Summary()
	if !strings.Contains(summary, "Win rate: 50.00%") {
		t.Fatalf("summary missing win rate, got:\n%s", summary)
	}
}
