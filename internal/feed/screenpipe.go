// Package feed queries Screenpipe for OCR observations of browser activity.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/screenbreak/internal/httpclient"
	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 16 << 20

// Config configures the Screenpipe client.
type Config struct {
	URL     string
	Timeout time.Duration
	Retries int
}

// Client is a Screenpipe search API client.
type Client struct {
	baseURL *url.URL
	http    *retryablehttp.Client
	logger  zerolog.Logger
}

// New creates a Screenpipe client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid feed url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid feed url: %q", cfg.URL)
	}

	logger = logger.With().Str("component", "feed").Logger()

	return &Client{
		baseURL: base,
		http:    httpclient.New(httpclient.Config{Timeout: cfg.Timeout, Retries: cfg.Retries}, logger),
		logger:  logger,
	}, nil
}

type searchResponse struct {
	Data []searchItem `json:"data"`
}

type searchItem struct {
	Type    string        `json:"type"`
	Content searchContent `json:"content"`
}

type searchContent struct {
	Timestamp       string `json:"timestamp"`
	BrowserURL      string `json:"browser_url"`
	BrowserURLCamel string `json:"browserUrl"`
}

// Query fetches observations in the requested window.
func (c *Client) Query(ctx context.Context, q usage.FeedQuery) ([]usage.Observation, error) {
	endpoint := c.searchURL(q)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenpipe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("screenpipe search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	observations := make([]usage.Observation, 0, len(parsed.Data))
	skipped := 0
	for _, item := range parsed.Data {
		ts, err := time.Parse(time.RFC3339Nano, item.Content.Timestamp)
		if err != nil {
			skipped++
			continue
		}

		browserURL := item.Content.BrowserURL
		if browserURL == "" {
			browserURL = item.Content.BrowserURLCamel
		}

		observations = append(observations, usage.Observation{
			Kind:       item.Type,
			Timestamp:  ts,
			BrowserURL: browserURL,
		})
	}

	if skipped > 0 {
		c.logger.Debug().Int("skipped", skipped).Msg("Skipped observations with invalid timestamps")
	}

	c.logger.Debug().
		Int("observations", len(observations)).
		Time("start", q.StartTime).
		Time("end", q.EndTime).
		Msg("Feed query complete")

	return observations, nil
}

func (c *Client) searchURL(q usage.FeedQuery) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/search"

	params := url.Values{}
	contentType := q.ContentType
	if contentType == "" {
		contentType = usage.ContentTypeOCR
	}
	params.Set("content_type", contentType)
	params.Set("start_time", q.StartTime.UTC().Format(time.RFC3339))
	params.Set("end_time", q.EndTime.UTC().Format(time.RFC3339))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("include_frames", strconv.FormatBool(q.IncludeFrames))
	u.RawQuery = params.Encode()

	return u.String()
}
