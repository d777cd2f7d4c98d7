package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/rs/zerolog"
)

func TestScreenpipe_Notify(t *testing.T) {
	var got notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewScreenpipe(Config{URL: srv.URL + "/notify", Timeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScreenpipe failed: %v", err)
	}

	if err := n.Notify(context.Background(), "ScreenBreak Alert", "time for a break"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if got.Title != "ScreenBreak Alert" || got.Body != "time for a break" {
		t.Errorf("Unexpected payload %+v", got)
	}
}

func TestScreenpipe_NotifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	n, err := NewScreenpipe(Config{URL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScreenpipe failed: %v", err)
	}

	err = n.Notify(context.Background(), "t", "b")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestScreenpipe_NotifyNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n, err := NewScreenpipe(Config{URL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScreenpipe failed: %v", err)
	}

	if err := n.Notify(context.Background(), "t", "b"); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single POST, got %d", got)
	}
}

func TestNewScreenpipe_RequiresURL(t *testing.T) {
	if _, err := NewScreenpipe(Config{}, zerolog.Nop()); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf))

	err := n.Notify(context.Background(), "ScreenBreak Alert", "take a break")
	if !errors.Is(err, usage.ErrNotDelivered) {
		t.Fatalf("Expected ErrNotDelivered, got %v", err)
	}
	if !strings.Contains(buf.String(), "take a break") {
		t.Errorf("Expected body in log output, got %s", buf.String())
	}
}
