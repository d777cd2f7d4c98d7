package usage

import (
	"math"
	"time"

	"github.com/goodtune/screenbreak/internal/platform"
)

// DateLayout is the calendar date format used for day boundaries.
const DateLayout = "2006-01-02"

// KindOCR is the observation kind produced by screen text recognition.
const KindOCR = "OCR"

// Observation is one timestamped reading of on-screen browser content.
type Observation struct {
	Kind       string
	Timestamp  time.Time
	BrowserURL string
}

// Entry is time attributed to a tracked platform between two consecutive
// matched observations. Duration is in seconds.
type Entry struct {
	Platform  platform.Platform `json:"platform"`
	Timestamp time.Time         `json:"timestamp"`
	Duration  float64           `json:"duration"`
}

// Minutes returns the entry duration in minutes.
func (e Entry) Minutes() float64 {
	return e.Duration / 60
}

// Valid reports whether the entry carries a positive, finite duration.
func (e Entry) Valid() bool {
	return e.Duration > 0 && !math.IsInf(e.Duration, 0)
}

// Log is the persisted usage history.
type Log struct {
	Entries        []Entry    `json:"usageHistory"`
	LastResetDate  string     `json:"lastResetDate,omitempty"`
	LastNotifiedAt *time.Time `json:"lastNotifiedAt,omitempty"`
}

// Settings are the user-editable goals.
type Settings struct {
	DailyGoalMinutes             float64 `json:"dailyGoalMinutes"`
	InterventionThresholdMinutes float64 `json:"interventionThresholdMinutes"`
	NotificationsEnabled         bool    `json:"notificationsEnabled"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		DailyGoalMinutes:             30,
		InterventionThresholdMinutes: 15,
		NotificationsEnabled:         true,
	}
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	DailyGoalMinutes             *float64 `json:"dailyGoalMinutes,omitempty"`
	InterventionThresholdMinutes *float64 `json:"interventionThresholdMinutes,omitempty"`
	NotificationsEnabled         *bool    `json:"notificationsEnabled,omitempty"`
}

// Document is the sub-object persisted in the settings store. It carries
// both the usage log and the settings.
type Document struct {
	Log
	Settings
}

// NewDocument returns an empty log with default settings.
func NewDocument() Document {
	return Document{
		Log:      Log{Entries: []Entry{}},
		Settings: DefaultSettings(),
	}
}

// Session is a maximal run of entries whose start times are no further
// apart than the session gap.
type Session struct {
	StartTime            time.Time                     `json:"startTime"`
	EndTime              time.Time                     `json:"endTime"`
	TotalDurationMinutes float64                       `json:"totalDurationMinutes"`
	PlatformBreakdown    map[platform.Platform]float64 `json:"platformBreakdown"`
	Entries              int                           `json:"entries"`
}

// DayTotal is the usage for one calendar day.
type DayTotal struct {
	Date    string  `json:"date"`
	Minutes float64 `json:"minutes"`
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// addDays shifts a calendar date by n days.
func addDays(date string, n int, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}
