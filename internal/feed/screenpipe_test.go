package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/rs/zerolog"
)

func setupTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, Timeout: 5 * time.Second, Retries: 0}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestQuery(t *testing.T) {
	start := time.Date(2026, 10, 16, 11, 55, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected /search, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		expected := map[string]string{
			"content_type":   "ocr",
			"start_time":     "2026-10-16T11:55:00Z",
			"end_time":       "2026-10-16T12:00:00Z",
			"limit":          "100",
			"include_frames": "false",
		}
		for key, want := range expected {
			if got := q.Get(key); got != want {
				t.Errorf("Expected %s=%s, got %s", key, want, got)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"type":"OCR","content":{"timestamp":"2026-10-16T11:56:00.250Z","browser_url":"https://www.tiktok.com/@a"}},
			{"type":"OCR","content":{"timestamp":"2026-10-16T11:57:00Z","browserUrl":"https://www.youtube.com/shorts/b"}},
			{"type":"Audio","content":{"timestamp":"2026-10-16T11:58:00Z"}},
			{"type":"OCR","content":{"timestamp":"not a time","browser_url":"https://tiktok.com"}}
		]}`))
	})

	observations, err := client.Query(context.Background(), usage.FeedQuery{
		ContentType: usage.ContentTypeOCR,
		StartTime:   start,
		EndTime:     end,
		Limit:       100,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(observations) != 3 {
		t.Fatalf("Expected 3 observations, got %d", len(observations))
	}
	if observations[0].BrowserURL != "https://www.tiktok.com/@a" {
		t.Errorf("Expected snake_case browser url, got %q", observations[0].BrowserURL)
	}
	if observations[0].Timestamp.Nanosecond() != 250000000 {
		t.Errorf("Expected fractional seconds preserved, got %v", observations[0].Timestamp)
	}
	if observations[1].BrowserURL != "https://www.youtube.com/shorts/b" {
		t.Errorf("Expected camelCase browser url, got %q", observations[1].BrowserURL)
	}
	if observations[2].Kind != "Audio" || observations[2].BrowserURL != "" {
		t.Errorf("Expected audio observation without url, got %+v", observations[2])
	}
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": [`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestClient(t, tt.handler)
			if _, err := client.Query(context.Background(), usage.FeedQuery{Limit: 10}); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestQuery_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(Config{URL: url, Timeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if _, err := client.Query(context.Background(), usage.FeedQuery{Limit: 10}); err == nil {
		t.Error("Expected error for unreachable feed")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost", "://bad"} {
		if _, err := New(Config{URL: raw}, zerolog.Nop()); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}
