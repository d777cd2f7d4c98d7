package usage

import (
	"sort"
	"time"

	"github.com/goodtune/screenbreak/internal/platform"
)

// DefaultSessionGap is the largest spacing between entry starts that still
// belongs to one session.
const DefaultSessionGap = 5 * time.Minute

// Goal status values.
const (
	StatusOnTrack  = "on_track"
	StatusOverGoal = "over_goal"
)

// EntriesForDate returns the entries starting on date in loc, sorted by
// start time. The input is not modified.
func EntriesForDate(entries []Entry, date string, loc *time.Location) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if DateOf(e.Timestamp, loc) == date {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SessionsForDate groups the entries of one day into sessions. A new
// session starts when an entry begins more than gap after the previous
// entry began.
func SessionsForDate(entries []Entry, date string, loc *time.Location, gap time.Duration) []Session {
	if gap <= 0 {
		gap = DefaultSessionGap
	}

	day := EntriesForDate(entries, date, loc)
	sessions := []Session{}
	if len(day) == 0 {
		return sessions
	}

	current := startSession(day[0])
	prev := day[0].Timestamp

	for _, e := range day[1:] {
		if e.Timestamp.Sub(prev) > gap {
			sessions = append(sessions, current)
			current = startSession(e)
		} else {
			current.add(e)
		}
		prev = e.Timestamp
	}

	return append(sessions, current)
}

func startSession(e Entry) Session {
	s := Session{
		StartTime:         e.Timestamp,
		PlatformBreakdown: make(map[platform.Platform]float64),
	}
	s.add(e)
	return s
}

func (s *Session) add(e Entry) {
	s.EndTime = e.Timestamp
	s.TotalDurationMinutes += e.Minutes()
	s.PlatformBreakdown[e.Platform] += e.Minutes()
	s.Entries++
}

// DailyTotalMinutes sums the minutes of entries starting on date.
func DailyTotalMinutes(entries []Entry, date string, loc *time.Location) float64 {
	var total float64
	for _, e := range entries {
		if DateOf(e.Timestamp, loc) == date {
			total += e.Minutes()
		}
	}
	return total
}

// PlatformTotals returns per-platform minutes for date.
func PlatformTotals(entries []Entry, date string, loc *time.Location) map[platform.Platform]float64 {
	totals := make(map[platform.Platform]float64)
	for _, e := range entries {
		if DateOf(e.Timestamp, loc) == date {
			totals[e.Platform] += e.Minutes()
		}
	}
	return totals
}

// WeeklyTrend returns daily totals for the days ending on today, oldest
// first.
func WeeklyTrend(entries []Entry, today string, loc *time.Location, days int) []DayTotal {
	if days < 1 {
		days = 1
	}

	byDate := make(map[string]float64)
	for _, e := range entries {
		byDate[DateOf(e.Timestamp, loc)] += e.Minutes()
	}

	trend := make([]DayTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := addDays(today, -i, loc)
		trend = append(trend, DayTotal{Date: date, Minutes: byDate[date]})
	}
	return trend
}

// GoalStatus reports whether today's usage exceeds the daily goal.
func GoalStatus(todayMinutes, dailyGoalMinutes float64) string {
	if todayMinutes > dailyGoalMinutes {
		return StatusOverGoal
	}
	return StatusOnTrack
}
