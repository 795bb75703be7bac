// Package state owns the small pieces of cross-cycle state: the persisted
// signal-ID counter and the in-memory daily tallies. Both are explicit structs
// handed to whoever needs them; there are no package-level globals.
package state

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type persistedID struct {
	CurrentID int64 `json:"current_id"`
}

// SignalIDs hands out 1, 2, 3... signal identifiers, strictly increasing
// across process restarts. The counter is persisted on every Next call.
type SignalIDs struct {
	mu   sync.Mutex
	cur  int64
	path string
}

// NewSignalIDs loads the last issued ID from dir/id_state.json; a missing or
// corrupt file restarts the counter at zero.
func NewSignalIDs(dir string) *SignalIDs {
	s := &SignalIDs{path: filepath.Join(dir, "id_state.json")}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return s
	}
	var st persistedID
	if err := json.Unmarshal(raw, &st); err != nil || st.CurrentID < 0 {
		log.Printf("state: id file unreadable, restarting counter")
		return s
	}
	s.cur = st.CurrentID
	return s
}

// Next increments, persists, then returns the new ID. Persistence failures
// are logged and the in-memory counter still advances, so IDs stay unique
// within the process even when the disk is unwritable.
func (s *SignalIDs) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur++
	raw, err := json.Marshal(persistedID{CurrentID: s.cur})
	if err == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err == nil {
			err = os.WriteFile(s.path, raw, 0o644)
		}
		if err != nil {
			log.Printf("state: WARNING could not persist signal id: %v", err)
		}
	}
	return s.cur
}
