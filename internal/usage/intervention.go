package usage

import (
	"fmt"
	"math"
	"time"
)

// DefaultNotificationTitle is the title of intervention notifications.
const DefaultNotificationTitle = "ScreenBreak Alert"

// Decision is the outcome of evaluating today's usage against the
// intervention threshold.
type Decision struct {
	TodayUsageMinutes float64 `json:"todayUsageMinutes"`
	ShouldNotify      bool    `json:"shouldNotify"`
	// Suppressed is set when a notification is due but notifications are
	// disabled or one was sent within the re-notify interval.
	Suppressed bool `json:"suppressed"`
}

// Fire reports whether a notification should actually be sent.
func (d Decision) Fire() bool {
	return d.ShouldNotify && !d.Suppressed
}

// Evaluate compares today's usage with the intervention threshold. A
// renotify interval of zero allows a notification on every evaluation.
func Evaluate(log Log, settings Settings, now time.Time, loc *time.Location, renotify time.Duration) Decision {
	today := DailyTotalMinutes(log.Entries, DateOf(now, loc), loc)

	d := Decision{
		TodayUsageMinutes: today,
		ShouldNotify:      today > settings.InterventionThresholdMinutes,
	}
	if !d.ShouldNotify {
		return d
	}

	switch {
	case !settings.NotificationsEnabled:
		d.Suppressed = true
	case renotify > 0 && log.LastNotifiedAt != nil && now.Sub(*log.LastNotifiedAt) < renotify:
		d.Suppressed = true
	}

	return d
}

// NotificationBody renders the intervention message for the given usage.
func NotificationBody(todayMinutes float64) string {
	return fmt.Sprintf("You've spent %d minutes on short-form videos today—time for a break?", int64(math.Round(todayMinutes)))
}
