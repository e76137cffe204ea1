// Package store persists per-customer state and the human-handoff
// registry as flat JSON files. Both stores read and rewrite their file
// as a whole; correctness relies on the single-threaded message handler
// being the only writer.
package store

import (
	"encoding/json"
	"log/slog"
	"os"
)

// CustomerState is the per-customer record. A missing record is
// equivalent to EmptyState.
type CustomerState struct {
	Cart       []string `json:"carrinho"`
	PostalCode string   `json:"cep,omitempty"`
}

// EmptyState is the default for customers with no stored record.
var EmptyState = CustomerState{}

// StateStore is a flat customer-identifier → state mapping backed by a
// single JSON file. Persistence is best effort: load failures yield an
// empty mapping and save failures are logged and swallowed.
type StateStore struct {
	path   string
	logger *slog.Logger
}

// NewStateStore creates a store backed by the JSON file at path.
func NewStateStore(path string, logger *slog.Logger) *StateStore {
	return &StateStore{
		path:   path,
		logger: logger.With("component", "state"),
	}
}

// Load returns the full mapping, or an empty mapping if the backing
// file is absent or corrupt.
func (s *StateStore) Load() map[string]CustomerState {
	states := make(map[string]CustomerState)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return states
	}
	if err := json.Unmarshal(data, &states); err != nil {
		s.logger.Warn("state file corrupt, starting from empty", "path", s.path, "error", err)
		return make(map[string]CustomerState)
	}
	return states
}

// Save rewrites the backing file with the full mapping. Failures are
// logged and swallowed.
func (s *StateStore) Save(states map[string]CustomerState) {
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		s.logger.Warn("failed to encode state", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("failed to write state file", "path", s.path, "error", err)
	}
}

// Get returns the record for a customer, or EmptyState if absent.
func (s *StateStore) Get(customerID string) CustomerState {
	if st, ok := s.Load()[customerID]; ok {
		return st
	}
	return EmptyState
}

// Put stores a single customer's record with a full read-modify-write
// of the mapping.
func (s *StateStore) Put(customerID string, state CustomerState) {
	states := s.Load()
	states[customerID] = state
	s.Save(states)
}
