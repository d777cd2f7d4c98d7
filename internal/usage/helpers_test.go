package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goodtune/screenbreak/internal/platform"
	"github.com/goodtune/screenbreak/internal/storage"
	"github.com/rs/zerolog"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory settings store that counts writes.
type memStore struct {
	mu       sync.Mutex
	data     storage.CustomSettings
	writes   int
	readErr  error
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{data: storage.CustomSettings{}}
}

func (m *memStore) ReadAll(ctx context.Context) (storage.CustomSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.data.Clone(), nil
}

func (m *memStore) WriteAll(ctx context.Context, settings storage.CustomSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data = settings.Clone()
	m.writes++
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// fakeFeed returns canned observations.
type fakeFeed struct {
	observations []Observation
	err          error
	queries      []FeedQuery
	panicMsg     string
}

func (f *fakeFeed) Query(ctx context.Context, q FeedQuery) ([]Observation, error) {
	f.queries = append(f.queries, q)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.observations, nil
}

type sentNotification struct {
	title string
	body  string
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, title, body string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{title: title, body: body})
	return nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", value, err)
	}
	return ts
}

func ocr(ts time.Time, url string) Observation {
	return Observation{Kind: KindOCR, Timestamp: ts, BrowserURL: url}
}

func entry(p platform.Platform, ts time.Time, seconds float64) Entry {
	return Entry{Platform: p, Timestamp: ts, Duration: seconds}
}

func setupLogStore(t *testing.T, now time.Time, retentionDays int) (*LogStore, *memStore, *TestClock) {
	t.Helper()
	store := newMemStore()
	clock := &TestClock{CurrentTime: now, Loc: time.UTC}
	return NewLogStore(store, DefaultSettingsKey, retentionDays, clock, zerolog.Nop()), store, clock
}
