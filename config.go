package wabridge

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process configuration, read from the environment.
type Config struct {
	// BackendURL is the answer-generation service base URL. Required.
	BackendURL string

	// Port is the status server listen port.
	Port int

	// SessionDB is the path of the WhatsApp credential store (sqlite).
	SessionDB string

	// StateDB is the path of the customer state JSON file.
	StateDB string

	// HandoffDB is the path of the handoff registry JSON file.
	HandoffDB string

	// CatalogCSV is the path of the product catalog file.
	CatalogCSV string

	// AllowGroups enables processing of group-chat messages.
	AllowGroups bool

	// RequestTimeout bounds each backend request.
	RequestTimeout time.Duration

	// HandoffTTL is how long a human handoff lasts.
	HandoffTTL time.Duration

	// OperatorJID is the human operator's chat identifier, if any.
	OperatorJID string

	// KeepAliveInterval is the backend health ping interval.
	KeepAliveInterval time.Duration

	// VoiceFile is an optional YAML voice definition.
	VoiceFile string

	// LogLevel is the minimum slog level.
	LogLevel slog.Level
}

// LoadConfig reads the configuration from the environment, applies
// defaults and validates it. A missing BACKEND_URL is the only fatal
// condition.
func LoadConfig() (Config, error) {
	cfg := Config{
		BackendURL:        os.Getenv("BACKEND_URL"),
		Port:              envInt("PORT", 8080),
		SessionDB:         envString("SESSION_DB", "wabridge.db"),
		StateDB:           envString("STATE_DB", "data/state.json"),
		HandoffDB:         envString("HANDOFF_DB", "data/handoff.json"),
		CatalogCSV:        envString("PRODUTOS_CSV", "produtos.csv"),
		AllowGroups:       envBool("ALLOW_GROUPS", false),
		RequestTimeout:    envDuration("REQUEST_TIMEOUT", 30*time.Second),
		HandoffTTL:        envDuration("HANDOFF_TTL", 30*time.Minute),
		OperatorJID:       os.Getenv("OPERATOR_JID"),
		KeepAliveInterval: envDuration("KEEPALIVE_INTERVAL", 10*time.Minute),
		VoiceFile:         os.Getenv("VOICE_FILE"),
		LogLevel:          envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks required fields.
func (c Config) validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return ErrMissingBackendURL
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envLevel(key string, fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
