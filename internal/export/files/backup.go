package files

import (
	"encoding/json"
	"fmt"
	"io"

	"bilancio/internal/state"
)

// WriteBackup writes every collection as one JSON document.
func WriteBackup(w io.Writer, snap state.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ReadBackup parses a document written by WriteBackup and validates its
// accounts and charts. Stored transactions are kept as they are.
func ReadBackup(r io.Reader) (state.Snapshot, error) {
	var snap state.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("parse backup: %w", err)
	}
	for i, a := range snap.Accounts {
		if err := a.Validate(); err != nil {
			return state.Snapshot{}, fmt.Errorf("account %d: %w", i+1, err)
		}
	}
	for i, c := range snap.Charts {
		if err := c.Validate(); err != nil {
			return state.Snapshot{}, fmt.Errorf("chart %d: %w", i+1, err)
		}
	}
	return snap, nil
}
