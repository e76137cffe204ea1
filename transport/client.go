// Package transport owns the WhatsApp session lifecycle and the minimal
// status HTTP surface.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/desfrut/wabridge"
)

// Status is the connection state reported on the health endpoint.
type Status string

const (
	StatusConnected       Status = "connected"
	StatusAwaitingPairing Status = "awaiting-pairing"
	StatusConnecting      Status = "connecting"
	StatusLoggedOut       Status = "logged-out"
)

// Responder produces the replies for one normalized inbound message.
type Responder interface {
	Reply(ctx context.Context, in wabridge.Inbound) []wabridge.Outbound
}

// ClientConfig configures the transport client.
type ClientConfig struct {
	// SessionDB is the sqlite file holding WhatsApp credentials.
	SessionDB string

	// AllowGroups enables processing of group-chat messages.
	AllowGroups bool
}

// Client wraps the WhatsApp connection. It normalizes inbound messages,
// hands them to the Responder and sends the replies. Reconnection after
// unexpected closes is automatic; an explicit logout is terminal and
// requires re-pairing.
type Client struct {
	wa          *whatsmeow.Client
	responder   Responder
	allowGroups bool
	logger      *slog.Logger

	mu        sync.RWMutex
	qrCode    string
	loggedOut bool

	// Done is closed when the session is terminally logged out.
	Done chan struct{}
}

// New opens the credential store and builds the client. It does not
// connect yet; call Connect.
func New(ctx context.Context, cfg ClientConfig, responder Responder, logger *slog.Logger) (*Client, error) {
	logger = logger.With("component", "transport")

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", cfg.SessionDB),
		waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	c := &Client{
		wa:          whatsmeow.NewClient(device, waLog.Noop),
		responder:   responder,
		allowGroups: cfg.AllowGroups,
		logger:      logger,
		Done:        make(chan struct{}),
	}
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// Connect establishes the session. While unauthenticated the pairing
// code is published through QRCode for the status server to render.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID == nil {
		qrChan, err := c.wa.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		go c.consumeQR(qrChan)
	}

	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

// Status reports the current connection state.
func (c *Client) Status() Status {
	c.mu.RLock()
	loggedOut := c.loggedOut
	c.mu.RUnlock()
	if loggedOut {
		return StatusLoggedOut
	}
	if c.QRCode() != "" {
		return StatusAwaitingPairing
	}
	if c.wa.IsConnected() && c.wa.IsLoggedIn() {
		return StatusConnected
	}
	return StatusConnecting
}

// QRCode returns the current pairing code, or "" when none is pending.
func (c *Client) QRCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.qrCode
}

func (c *Client) setQRCode(code string) {
	c.mu.Lock()
	c.qrCode = code
	c.mu.Unlock()
}

func (c *Client) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			c.setQRCode(item.Code)
			c.logger.Info("pairing code available, scan it on the status page")
		case "success":
			c.setQRCode("")
			c.logger.Info("pairing complete")
		default:
			c.setQRCode("")
			c.logger.Warn("pairing ended", "event", item.Event, "error", item.Error)
		}
	}
}

// Send delivers a text message to a chat.
func (c *Client) Send(ctx context.Context, to, text string) error {
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid chat identifier %q: %w", to, err)
	}
	_, err = c.wa.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (c *Client) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		c.onMessage(v)
	case *events.Connected:
		c.setQRCode("")
		c.logger.Info("connected")
	case *events.Disconnected:
		// whatsmeow reconnects on its own unless we were logged out.
		c.logger.Warn("disconnected, waiting for automatic reconnect")
	case *events.LoggedOut:
		c.logger.Error("logged out, manual re-pairing required", "reason", v.Reason)
		c.mu.Lock()
		c.loggedOut = true
		c.mu.Unlock()
		c.wa.Disconnect()
		close(c.Done)
	}
}

// onMessage normalizes one inbound message and replies. Messages are
// handled one at a time in event order; the stores rely on that.
func (c *Client) onMessage(evt *events.Message) {
	info := evt.Info
	if info.IsFromMe {
		return
	}
	if info.IsGroup && !c.allowGroups {
		return
	}

	text := strings.TrimSpace(ExtractText(evt.Message))
	if text == "" {
		return
	}

	in := wabridge.Inbound{
		ChatID:      info.Chat.String(),
		Text:        text,
		DisplayName: info.PushName,
	}
	c.logger.Debug("inbound message", "chat_id", in.ChatID)

	ctx := context.Background()
	for _, out := range c.responder.Reply(ctx, in) {
		if err := c.Send(ctx, out.To, out.Text); err != nil {
			c.logger.Error("failed to send reply", "to", out.To, "error", err)
		}
	}
}
