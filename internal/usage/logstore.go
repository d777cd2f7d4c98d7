package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/screenbreak/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultSettingsKey is the custom settings sub-object owned by the tracker.
const DefaultSettingsKey = "screenbreak"

// LogStore persists the usage log and settings as one sub-object of the
// external settings store. Read-modify-write cycles are serialized within
// the process; other writers of the same store remain last-writer-wins.
type LogStore struct {
	store         storage.SettingsStore
	key           string
	clock         Clock
	retentionDays int
	logger        zerolog.Logger

	mu sync.Mutex
}

// NewLogStore creates a log store over the given settings store.
func NewLogStore(store storage.SettingsStore, key string, retentionDays int, clock Clock, logger zerolog.Logger) *LogStore {
	if key == "" {
		key = DefaultSettingsKey
	}
	if retentionDays < 1 {
		retentionDays = 1
	}
	return &LogStore{
		store:         store,
		key:           key,
		clock:         clock,
		retentionDays: retentionDays,
		logger:        logger.With().Str("component", "usage-log").Logger(),
	}
}

// GetLog returns the persisted document, filling missing fields with
// defaults.
func (s *LogStore) GetLog(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.load(ctx)
	return doc, err
}

// MergeAndPersist folds newEntries into the log, applies the daily rollover
// and writes the result back when anything changed.
func (s *LogStore) MergeAndPersist(ctx context.Context, newEntries []Entry) (Document, MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, all, err := s.load(ctx)
	if err != nil {
		return Document{}, MergeResult{}, err
	}

	loc := s.clock.Location()
	merged, result := Merge(doc.Log, newEntries, MergeOptions{
		Today:         DateOf(s.clock.Now(), loc),
		RetentionDays: s.retentionDays,
		Location:      loc,
	})
	doc.Log = merged

	if !result.Changed() {
		return doc, result, nil
	}

	if err := s.save(ctx, all, doc); err != nil {
		return Document{}, MergeResult{}, err
	}

	s.logger.Debug().
		Int("added", len(result.Added)).
		Int("duplicates", result.Duplicates).
		Int("late", result.Late).
		Int("future", result.Future).
		Int("expired", result.Expired).
		Bool("rolled_over", result.RolledOver).
		Int("entries", len(doc.Entries)).
		Msg("Usage log persisted")

	if result.RolledOver {
		s.logger.Info().
			Str("date", doc.LastResetDate).
			Int("expired", result.Expired).
			Msg("Daily usage rollover complete")
	}

	return doc, result, nil
}

// UpdateSettings applies a partial settings update. The usage history is
// left untouched.
func (s *LogStore) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	if err := patch.Validate(); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, all, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}

	doc.Settings = doc.Settings.Apply(patch)

	if err := s.save(ctx, all, doc); err != nil {
		return Settings{}, err
	}

	s.logger.Info().
		Float64("daily_goal_minutes", doc.DailyGoalMinutes).
		Float64("threshold_minutes", doc.InterventionThresholdMinutes).
		Bool("notifications_enabled", doc.NotificationsEnabled).
		Msg("Settings updated")

	return doc.Settings, nil
}

// MarkNotified records the time of the last delivered notification.
func (s *LogStore) MarkNotified(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, all, err := s.load(ctx)
	if err != nil {
		return err
	}

	at = at.UTC()
	doc.LastNotifiedAt = &at

	return s.save(ctx, all, doc)
}

func (s *LogStore) load(ctx context.Context) (Document, storage.CustomSettings, error) {
	all, err := s.store.ReadAll(ctx)
	if err != nil {
		return Document{}, nil, fmt.Errorf("%w: failed to read settings: %v", ErrStore, err)
	}

	doc := NewDocument()
	if err := all.Decode(s.key, &doc); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Document{}, nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		doc = NewDocument()
	}
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}

	return doc, all, nil
}

func (s *LogStore) save(ctx context.Context, all storage.CustomSettings, doc Document) error {
	next := all.Clone()
	if err := next.Encode(s.key, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if err := s.store.WriteAll(ctx, next); err != nil {
		return fmt.Errorf("%w: failed to write settings: %v", ErrStore, err)
	}
	return nil
}

// Validate rejects non-positive goals and thresholds.
func (p SettingsPatch) Validate() error {
	if p.DailyGoalMinutes != nil && !(*p.DailyGoalMinutes > 0) {
		return fmt.Errorf("%w: daily goal must be positive", ErrInvalidSettings)
	}
	if p.InterventionThresholdMinutes != nil && !(*p.InterventionThresholdMinutes > 0) {
		return fmt.Errorf("%w: intervention threshold must be positive", ErrInvalidSettings)
	}
	return nil
}

// Apply returns s with the fields set in p replaced.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.DailyGoalMinutes != nil {
		s.DailyGoalMinutes = *p.DailyGoalMinutes
	}
	if p.InterventionThresholdMinutes != nil {
		s.InterventionThresholdMinutes = *p.InterventionThresholdMinutes
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	return s
}
