package wabridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHumanize(t *testing.T) {
	voice := DefaultVoice()

	t.Run("empty reply yields the fallback prompt", func(t *testing.T) {
		if got := voice.Humanize("", "Maria"); got != voice.Fallback {
			t.Errorf("expected fallback, got %q", got)
		}
		if got := voice.Humanize("   \n  ", ""); got != voice.Fallback {
			t.Errorf("expected fallback for whitespace, got %q", got)
		}
	})

	t.Run("greeting uses the first name only", func(t *testing.T) {
		got := voice.Humanize("Temos sim!", "Maria Silva")
		if got != "Oi! Maria, Temos sim!" {
			t.Errorf("unexpected reply: %q", got)
		}
	})

	t.Run("greeting without a name", func(t *testing.T) {
		if got := voice.Humanize("Temos sim!", ""); got != "Oi! Temos sim!" {
			t.Errorf("unexpected reply: %q", got)
		}
	})

	t.Run("greeting suppressed when the reply opens like one", func(t *testing.T) {
		got := voice.Humanize("Olá! Tudo certo por aqui.", "Maria")
		if strings.HasPrefix(got, "Oi!") {
			t.Errorf("expected no greeting prefix, got %q", got)
		}
		if got != "Olá! Tudo certo por aqui." {
			t.Errorf("expected reply unchanged, got %q", got)
		}
	})

	t.Run("opener past the opening window does not suppress", func(t *testing.T) {
		got := voice.Humanize("Temos sim esse item, oi disse a cliente.", "")
		if !strings.HasPrefix(got, "Oi! ") {
			t.Errorf("expected greeting prefix, got %q", got)
		}
	})

	t.Run("signature is appended", func(t *testing.T) {
		v := voice
		v.Signature = "\n— Equipe Desfrut"
		got := v.Humanize("Temos sim!", "")
		if !strings.HasSuffix(got, "— Equipe Desfrut") {
			t.Errorf("expected signature suffix, got %q", got)
		}
	})
}

func TestLoadVoice(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "voice.yaml")
		contents := "greeting: \"Bem-vinda! \"\nrules:\n  - Sempre formal.\n"
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("failed to write voice file: %v", err)
		}

		voice, err := LoadVoice(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if voice.Greeting != "Bem-vinda! " {
			t.Errorf("expected greeting from file, got %q", voice.Greeting)
		}
		if len(voice.Rules) != 1 || voice.Rules[0] != "Sempre formal." {
			t.Errorf("expected rules from file, got %v", voice.Rules)
		}
		if voice.Fallback != DefaultVoice().Fallback {
			t.Errorf("expected default fallback kept, got %q", voice.Fallback)
		}
	})

	t.Run("missing file returns defaults and an error", func(t *testing.T) {
		voice, err := LoadVoice(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Fatal("expected an error for a missing file")
		}
		if voice.Greeting != DefaultVoice().Greeting {
			t.Errorf("expected default voice, got %+v", voice)
		}
	})

	t.Run("malformed file returns defaults and an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "voice.yaml")
		if err := os.WriteFile(path, []byte("openers: not-a-list"), 0o644); err != nil {
			t.Fatalf("failed to write voice file: %v", err)
		}

		voice, err := LoadVoice(path)
		if err == nil {
			t.Fatal("expected an error for a malformed file")
		}
		if voice.Fallback != DefaultVoice().Fallback {
			t.Errorf("expected default voice, got %+v", voice)
		}
	})
}
