// Package notify delivers intervention notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goodtune/screenbreak/internal/httpclient"
	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Config configures the Screenpipe notifier.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Screenpipe posts notifications to the Screenpipe notification endpoint.
type Screenpipe struct {
	url    string
	http   *retryablehttp.Client
	logger zerolog.Logger
}

// NewScreenpipe creates a notifier posting to cfg.URL.
func NewScreenpipe(cfg Config, logger zerolog.Logger) (*Screenpipe, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("notify url is required")
	}

	logger = logger.With().Str("component", "notify").Logger()

	return &Screenpipe{
		url:    cfg.URL,
		// No retries: a retried POST after a 5xx can show the notification twice.
		http:   httpclient.New(httpclient.Config{Timeout: cfg.Timeout}, logger),
		logger: logger,
	}, nil
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notify sends a desktop notification.
func (n *Screenpipe) Notify(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(notification{Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	n.logger.Debug().Str("title", title).Msg("Notification delivered")
	return nil
}

// Log writes notifications to the log instead of delivering them.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log-only notifier.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notify").Logger()}
}

// Notify logs the notification. It always returns usage.ErrNotDelivered so
// the caller does not treat the log line as a delivery.
func (l *Log) Notify(ctx context.Context, title, body string) error {
	l.logger.Warn().Str("title", title).Str("body", body).Msg("Intervention")
	return usage.ErrNotDelivered
}
