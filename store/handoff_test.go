package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHandoffRegistry(t *testing.T) {
	newRegistry := func(t *testing.T) *HandoffRegistry {
		t.Helper()
		return NewHandoffRegistry(filepath.Join(t.TempDir(), "handoff.json"), slog.Default())
	}

	t.Run("begin marks a chat active", func(t *testing.T) {
		r := newRegistry(t)

		r.Begin("5592999990000@s.whatsapp.net", 30*time.Minute)

		if !r.Active("5592999990000@s.whatsapp.net") {
			t.Error("expected chat to be in handoff")
		}
		if r.Active("other@s.whatsapp.net") {
			t.Error("expected unrelated chat to stay automated")
		}
	})

	t.Run("end returns the chat to automation", func(t *testing.T) {
		r := newRegistry(t)

		r.Begin("chat", 30*time.Minute)
		r.End("chat")

		if r.Active("chat") {
			t.Error("expected chat to leave handoff")
		}
		if _, ok := r.Expiry("chat"); ok {
			t.Error("expected entry to be removed")
		}
	})

	t.Run("expiry is lazy", func(t *testing.T) {
		r := newRegistry(t)
		base := time.Now()
		r.now = func() time.Time { return base }

		r.Begin("chat", 30*time.Minute)
		if !r.Active("chat") {
			t.Fatal("expected chat active before expiry")
		}

		r.now = func() time.Time { return base.Add(31 * time.Minute) }
		if r.Active("chat") {
			t.Error("expected chat inactive after expiry")
		}
		if _, ok := r.Expiry("chat"); !ok {
			t.Error("expected expired entry to remain on file")
		}
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		r := newRegistry(t)
		base := time.UnixMilli(1_700_000_000_000)
		r.now = func() time.Time { return base }

		r.Begin("chat", 30*time.Minute)

		r.now = func() time.Time { return base.Add(30 * time.Minute) }
		if r.Active("chat") {
			t.Error("expected chat inactive exactly at expiry")
		}
	})

	t.Run("registry persists across instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "handoff.json")
		r := NewHandoffRegistry(path, slog.Default())
		r.Begin("chat", time.Hour)

		fresh := NewHandoffRegistry(path, slog.Default())
		if !fresh.Active("chat") {
			t.Error("expected handoff to survive a restart")
		}
	})

	t.Run("corrupt file loads as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "handoff.json")
		if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}
		r := NewHandoffRegistry(path, slog.Default())

		if len(r.Load()) != 0 {
			t.Error("expected empty registry from corrupt file")
		}
	})
}
