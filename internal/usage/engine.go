package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/screenbreak/internal/metrics"
	"github.com/goodtune/screenbreak/internal/platform"
	"github.com/rs/zerolog"
)

// Feed query defaults.
const (
	DefaultLookback   = 5 * time.Minute
	DefaultQueryLimit = 100
	ContentTypeOCR    = "ocr"
)

// FeedQuery selects observations from the feed.
type FeedQuery struct {
	ContentType   string
	StartTime     time.Time
	EndTime       time.Time
	Limit         int
	IncludeFrames bool
}

// Feed yields observations for a time window.
type Feed interface {
	Query(ctx context.Context, q FeedQuery) ([]Observation, error)
}

// Notifier delivers intervention notifications.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// EngineConfig tunes an evaluation cycle.
type EngineConfig struct {
	Lookback          time.Duration
	Limit             int
	RenotifyInterval  time.Duration
	NotificationTitle string
}

// Summary is the result of one evaluation cycle.
type Summary struct {
	TodayUsageMinutes float64
	// Entries are the entries derived in this cycle, before deduplication.
	Entries  []Entry
	Decision Decision
	Notified bool
	Err      error
}

// Engine runs evaluation cycles: query the feed, derive entries, merge them
// into the log, evaluate the threshold and notify. Cycles never overlap.
type Engine struct {
	feed     Feed
	store    *LogStore
	matcher  *platform.Matcher
	notifier Notifier
	clock    Clock
	cfg      EngineConfig
	logger   zerolog.Logger

	mu sync.Mutex
}

// NewEngine creates an evaluation engine. A nil notifier disables delivery
// without changing the decision.
func NewEngine(feed Feed, store *LogStore, matcher *platform.Matcher, notifier Notifier, clock Clock, cfg EngineConfig, logger zerolog.Logger) *Engine {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultQueryLimit
	}
	if cfg.NotificationTitle == "" {
		cfg.NotificationTitle = DefaultNotificationTitle
	}
	if matcher == nil {
		matcher = platform.Default()
	}

	return &Engine{
		feed:     feed,
		store:    store,
		matcher:  matcher,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With().Str("component", "engine").Logger(),
	}
}

// Store returns the engine's log store.
func (e *Engine) Store() *LogStore {
	return e.store
}

// Clock returns the engine's clock.
func (e *Engine) Clock() Clock {
	return e.clock
}

// RunCycle performs one evaluation. Failures are reported in the summary;
// RunCycle never panics.
func (e *Engine) RunCycle(ctx context.Context) (summary Summary) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("Evaluation cycle panicked")
			summary = Summary{Entries: []Entry{}, Err: fmt.Errorf("evaluation cycle panicked: %v", r)}
		}
		metrics.CyclesTotal.WithLabelValues(cycleResult(summary.Err)).Inc()
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	return e.runCycle(ctx)
}

func (e *Engine) runCycle(ctx context.Context) Summary {
	now := e.clock.Now()
	loc := e.clock.Location()

	observations, err := e.feed.Query(ctx, FeedQuery{
		ContentType:   ContentTypeOCR,
		StartTime:     now.Add(-e.cfg.Lookback),
		EndTime:       now,
		Limit:         e.cfg.Limit,
		IncludeFrames: false,
	})
	if err != nil {
		metrics.FeedErrors.Inc()
		e.logger.Error().Err(err).Msg("Failed to query observation feed")
		return Summary{Entries: []Entry{}, Err: fmt.Errorf("%w: %v", ErrFeed, err)}
	}
	metrics.ObservationsReceived.Add(float64(len(observations)))

	entries := Derive(observations, e.matcher)
	metrics.EntriesDerived.Add(float64(len(entries)))

	doc, result, err := e.store.MergeAndPersist(ctx, entries)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("merge").Inc()
		e.logger.Error().Err(err).Msg("Failed to persist usage log")
		return Summary{Entries: []Entry{}, Err: err}
	}

	metrics.EntriesPersisted.Add(float64(len(result.Added)))
	for _, added := range result.Added {
		metrics.UsageMinutesConsumed.WithLabelValues(string(added.Platform)).Add(added.Minutes())
	}

	decision := Evaluate(doc.Log, doc.Settings, now, loc, e.cfg.RenotifyInterval)
	metrics.TodayUsageMinutes.Set(decision.TodayUsageMinutes)

	summary := Summary{
		TodayUsageMinutes: decision.TodayUsageMinutes,
		Entries:           entries,
		Decision:          decision,
	}

	e.logger.Debug().
		Int("observations", len(observations)).
		Int("derived", len(entries)).
		Int("added", len(result.Added)).
		Float64("today_minutes", decision.TodayUsageMinutes).
		Bool("should_notify", decision.ShouldNotify).
		Bool("suppressed", decision.Suppressed).
		Msg("Evaluation cycle complete")

	if decision.ShouldNotify && decision.Suppressed {
		metrics.NotificationsTotal.WithLabelValues("suppressed").Inc()
	}
	if decision.Fire() {
		summary.Notified = e.notify(ctx, decision, now)
	}

	return summary
}

// notify delivers the intervention and records when it was sent. Delivery
// failures are logged and never fail the cycle. Nothing is recorded unless
// the notifier actually delivered.
func (e *Engine) notify(ctx context.Context, decision Decision, now time.Time) bool {
	if e.notifier == nil {
		return false
	}

	body := NotificationBody(decision.TodayUsageMinutes)
	err := e.notifier.Notify(ctx, e.cfg.NotificationTitle, body)
	switch {
	case errors.Is(err, ErrNotDelivered):
		metrics.NotificationsTotal.WithLabelValues("not_delivered").Inc()
		return false
	case err != nil:
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		e.logger.Warn().Err(err).Msg("Failed to send intervention notification")
		return false
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()

	e.logger.Info().
		Float64("today_minutes", decision.TodayUsageMinutes).
		Msg("Intervention notification sent")

	if err := e.store.MarkNotified(ctx, now); err != nil {
		metrics.StoreErrors.WithLabelValues("mark_notified").Inc()
		e.logger.Error().Err(err).Msg("Failed to record notification time")
	}

	return true
}

func cycleResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrFeed):
		return "feed_error"
	case errors.Is(err, ErrStore):
		return "store_error"
	default:
		return "error"
	}
}
