package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// HandoffRegistry maps chat identifiers to handoff expiry instants,
// backed by a single JSON file of epoch milliseconds. A chat is in
// handoff iff its recorded expiry is strictly in the future. Expired
// entries are not proactively purged.
type HandoffRegistry struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewHandoffRegistry creates a registry backed by the JSON file at path.
func NewHandoffRegistry(path string, logger *slog.Logger) *HandoffRegistry {
	return &HandoffRegistry{
		path:   path,
		logger: logger.With("component", "handoff"),
		now:    time.Now,
	}
}

// Begin marks a chat as handed off to a human operator until now+ttl.
func (r *HandoffRegistry) Begin(chatID string, ttl time.Duration) {
	entries := r.Load()
	entries[chatID] = r.now().Add(ttl).UnixMilli()
	r.Save(entries)
}

// End returns a chat to automated handling.
func (r *HandoffRegistry) End(chatID string) {
	entries := r.Load()
	delete(entries, chatID)
	r.Save(entries)
}

// Active reports whether a chat is currently handed off.
func (r *HandoffRegistry) Active(chatID string) bool {
	expiry, ok := r.Load()[chatID]
	return ok && time.UnixMilli(expiry).After(r.now())
}

// Expiry returns the recorded expiry for a chat, if any.
func (r *HandoffRegistry) Expiry(chatID string) (time.Time, bool) {
	millis, ok := r.Load()[chatID]
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// Load returns the full chat → expiry mapping, or an empty mapping if
// the backing file is absent or corrupt.
func (r *HandoffRegistry) Load() map[string]int64 {
	entries := make(map[string]int64)
	data, err := os.ReadFile(r.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		r.logger.Warn("handoff file corrupt, starting from empty", "path", r.path, "error", err)
		return make(map[string]int64)
	}
	return entries
}

// Save rewrites the backing file with the full mapping. Failures are
// logged and swallowed.
func (r *HandoffRegistry) Save(entries map[string]int64) {
	data, err := json.Marshal(entries)
	if err != nil {
		r.logger.Warn("failed to encode handoff registry", "error", err)
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.logger.Warn("failed to write handoff file", "path", r.path, "error", err)
	}
}
