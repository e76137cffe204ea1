// Package backend calls the remote answer-generation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/desfrut/wabridge/metrics"
)

// FallbackAnswer is returned when every attempt against the backend
// fails. It is the only failure surface the end user ever sees.
const FallbackAnswer = "Desculpe, estou com uma instabilidade no momento. Pode tentar de novo em alguns instantes?"

// Client sends questions to the backend's /ask endpoint with bounded
// retries, and keeps the backend warm with periodic /healthz pings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// retryDelays holds the wait before each attempt; its length is the
	// total number of attempts.
	retryDelays []time.Duration
}

// New creates a backend client. timeout bounds each individual request.
func New(baseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With("component", "backend"),
		metrics:     m,
		retryDelays: []time.Duration{0, 500 * time.Millisecond, 2 * time.Second},
	}
}

type askRequest struct {
	Question     string `json:"question"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask sends the question to the backend and returns its answer. On
// failure it retries with increasing delays and finally returns
// FallbackAnswer; it never returns an error to the caller.
func (c *Client) Ask(ctx context.Context, question, customerID, customerName string) string {
	body, err := json.Marshal(askRequest{
		Question:     question,
		CustomerID:   customerID,
		CustomerName: customerName,
	})
	if err != nil {
		c.logger.Error("failed to encode question", "error", err)
		return FallbackAnswer
	}

	for attempt, delay := range c.retryDelays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				c.metrics.BackendRequests.WithLabelValues("fallback").Inc()
				return FallbackAnswer
			case <-time.After(delay):
			}
		}

		answer, err := c.ask(ctx, body)
		if err == nil {
			c.metrics.BackendRequests.WithLabelValues("success").Inc()
			return StripSources(answer)
		}

		c.logger.Warn("backend call failed",
			"attempt", attempt+1,
			"attempts", len(c.retryDelays),
			"error", err,
		)
		c.metrics.BackendRequests.WithLabelValues("error").Inc()
	}

	c.metrics.BackendRequests.WithLabelValues("fallback").Inc()
	return FallbackAnswer
}

func (c *Client) ask(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.BackendLatency.
		WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).
		Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("backend returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed askResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return parsed.Answer, nil
}

// KeepAlive pings the backend health endpoint on the given interval to
// mitigate cold-start latency. Results are ignored. It blocks until ctx
// is canceled and is meant to run on its own goroutine.
func (c *Client) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ping(ctx)
		}
	}
}

func (c *Client) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("keep-alive ping failed", "error", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	c.logger.Debug("keep-alive ping", "status", resp.StatusCode)
}

// StripSources removes trailing source-attribution lines from an
// answer: any line starting (case-insensitively) with "sources:" or
// "fontes:" is dropped.
func StripSources(answer string) string {
	lines := strings.Split(answer, "\n")
	kept := lines[:0]
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "sources:") || strings.HasPrefix(lower, "fontes:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
