// Package wabridge routes WhatsApp messages between customers, a small
// rule-based agent and the remote answer-generation backend.
package wabridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/desfrut/wabridge/metrics"
	"github.com/desfrut/wabridge/store"
)

// Inbound is a chat message normalized by the transport.
type Inbound struct {
	// ChatID identifies the conversation (and the customer).
	ChatID string

	// Text is the extracted plain text.
	Text string

	// DisplayName is the sender's profile name, when known.
	DisplayName string
}

// Outbound is a message for the transport to deliver.
type Outbound struct {
	// To is the destination chat identifier.
	To string

	// Text is the message body.
	Text string
}

// Asker produces an answer for a question that no rule handled. It never
// fails: implementations return a fallback answer instead of an error.
type Asker interface {
	Ask(ctx context.Context, question, customerID, customerName string) string
}

// Control phrases recognized before any routing. Matching is exact on
// the trimmed, lowercased text.
var (
	handoffTriggers = map[string]bool{
		"atendente":           true,
		"falar com atendente": true,
		"humano":              true,
	}
	returnTriggers = map[string]bool{
		"#voltar":       true,
		"voltar ao bot": true,
	}
)

const (
	handoffConfirmAnswer = "Certo, já chamei um atendente humano. A partir de agora quem responde é a nossa equipe. " +
		"Para voltar ao atendimento automático, envie #voltar."
	returnConfirmAnswer = "Pronto, voltei ao atendimento automático. Como posso ajudar?"
)

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	// Router is the rule-based intent router. Required.
	Router *Router

	// Backend answers questions no rule handled. Required.
	Backend Asker

	// Handoffs is the human-handoff registry. Required.
	Handoffs *store.HandoffRegistry

	// Voice shapes outgoing text. Defaults to DefaultVoice.
	Voice Voice

	// OperatorJID is the human operator's chat identifier. When empty,
	// handoff still suspends routing but nothing is forwarded.
	OperatorJID string

	// HandoffTTL is how long a handoff lasts. Defaults to 30 minutes.
	HandoffTTL time.Duration

	// Metrics is the collector set. Required.
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Bridge is the per-message pipeline: handoff control, the literal ping
// check, the intent router, the backend fallback and the humanizer.
// One inbound message is fully processed before the next.
type Bridge struct {
	router     *Router
	backend    Asker
	handoffs   *store.HandoffRegistry
	voice      Voice
	operator   string
	handoffTTL time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewBridge creates a Bridge from the given configuration.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if cfg.Router == nil {
		return nil, errors.New("Router is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("Backend is required")
	}
	if cfg.Handoffs == nil {
		return nil, errors.New("Handoffs registry is required")
	}
	if cfg.Metrics == nil {
		return nil, errors.New("Metrics is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HandoffTTL <= 0 {
		cfg.HandoffTTL = 30 * time.Minute
	}
	if len(cfg.Voice.Openers) == 0 && cfg.Voice.Fallback == "" {
		cfg.Voice = DefaultVoice()
	}

	return &Bridge{
		router:     cfg.Router,
		backend:    cfg.Backend,
		handoffs:   cfg.Handoffs,
		voice:      cfg.Voice,
		operator:   cfg.OperatorJID,
		handoffTTL: cfg.HandoffTTL,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("component", "bridge"),
	}, nil
}

// Reply processes one inbound message and returns the messages to send.
// An empty slice means nothing should be sent.
func (b *Bridge) Reply(ctx context.Context, in Inbound) []Outbound {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		b.metrics.MessagesHandled.WithLabelValues("ignored").Inc()
		return nil
	}
	lower := strings.ToLower(text)

	if handoffTriggers[lower] {
		b.handoffs.Begin(in.ChatID, b.handoffTTL)
		b.logger.Info("handoff started", "chat_id", in.ChatID, "ttl", b.handoffTTL)
		b.metrics.MessagesHandled.WithLabelValues("control").Inc()

		out := []Outbound{{To: in.ChatID, Text: handoffConfirmAnswer}}
		if b.operator != "" {
			out = append(out, Outbound{
				To:   b.operator,
				Text: fmt.Sprintf("Atendimento humano solicitado por %s (%s).", in.DisplayName, in.ChatID),
			})
		}
		return out
	}

	if returnTriggers[lower] {
		b.handoffs.End(in.ChatID)
		b.logger.Info("handoff ended", "chat_id", in.ChatID)
		b.metrics.MessagesHandled.WithLabelValues("control").Inc()
		return []Outbound{{To: in.ChatID, Text: returnConfirmAnswer}}
	}

	if b.handoffs.Active(in.ChatID) {
		b.metrics.MessagesHandled.WithLabelValues("handoff").Inc()
		if b.operator == "" {
			return nil
		}
		return []Outbound{{
			To:   b.operator,
			Text: fmt.Sprintf("[%s] %s", in.ChatID, text),
		}}
	}

	if lower == "ping" {
		b.metrics.MessagesHandled.WithLabelValues("pong").Inc()
		return []Outbound{{To: in.ChatID, Text: "pong"}}
	}

	answer, err := b.router.Respond(ctx, text, in.ChatID)
	switch {
	case err == nil:
		b.metrics.MessagesHandled.WithLabelValues("rule").Inc()
	case errors.Is(err, ErrNotHandled):
		answer = b.backend.Ask(ctx, text, in.ChatID, in.DisplayName)
		b.metrics.MessagesHandled.WithLabelValues("backend").Inc()
	default:
		b.logger.Error("router failed", "chat_id", in.ChatID, "error", err)
		answer = ""
		b.metrics.MessagesHandled.WithLabelValues("rule").Inc()
	}

	return []Outbound{{To: in.ChatID, Text: b.voice.Humanize(answer, in.DisplayName)}}
}
