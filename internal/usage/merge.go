package usage

import (
	"time"
)

// MergeOptions control how new entries are folded into a log.
type MergeOptions struct {
	// Today is the current calendar date in Location.
	Today string
	// RetentionDays is the number of calendar days, including today, kept
	// after a rollover. Values below one are treated as one.
	RetentionDays int
	Location      *time.Location
}

// MergeResult describes what a merge did to the log.
type MergeResult struct {
	Added      []Entry
	Duplicates int
	Late       int
	// Future counts new entries dated after today, from a skewed feed clock.
	Future     int
	Dropped    int
	Expired    int
	RolledOver bool
}

// Changed reports whether the merged log differs from the input log.
func (r MergeResult) Changed() bool {
	return len(r.Added) > 0 || r.Dropped > 0 || r.Expired > 0 || r.RolledOver
}

// WindowStart returns the first calendar date kept by the retention window
// ending on today.
func WindowStart(today string, retentionDays int, loc *time.Location) string {
	if retentionDays < 1 {
		retentionDays = 1
	}
	return addDays(today, -(retentionDays - 1), loc)
}

// Merge appends new entries to log, skipping any whose start timestamp is
// already present or whose date falls outside the retention window, removes
// non-positive durations and performs the daily rollover. The input log is
// not modified.
func Merge(log Log, newEntries []Entry, opts MergeOptions) (Log, MergeResult) {
	var result MergeResult

	windowStart := WindowStart(opts.Today, opts.RetentionDays, opts.Location)

	seen := make(map[int64]struct{}, len(log.Entries)+len(newEntries))
	for _, e := range log.Entries {
		seen[e.Timestamp.UnixNano()] = struct{}{}
	}

	combined := make([]Entry, 0, len(log.Entries)+len(newEntries))
	combined = append(combined, log.Entries...)
	fresh := make(map[int64]struct{}, len(newEntries))

	for _, e := range newEntries {
		key := e.Timestamp.UnixNano()
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		date := DateOf(e.Timestamp, opts.Location)
		if date < windowStart {
			result.Late++
			continue
		}
		if date > opts.Today {
			result.Future++
			continue
		}
		seen[key] = struct{}{}
		fresh[key] = struct{}{}
		combined = append(combined, e)
	}

	kept := combined[:0]
	for _, e := range combined {
		if !e.Valid() {
			result.Dropped++
			continue
		}
		kept = append(kept, e)
	}
	combined = kept

	merged := Log{
		Entries:        combined,
		LastResetDate:  log.LastResetDate,
		LastNotifiedAt: log.LastNotifiedAt,
	}

	// An empty log has nothing to roll over; the marker is set with the
	// first entry instead so an idle day never writes.
	if log.LastResetDate != opts.Today && len(combined) > 0 {
		retained := make([]Entry, 0, len(combined))
		for _, e := range combined {
			date := DateOf(e.Timestamp, opts.Location)
			if date < windowStart || date > opts.Today {
				result.Expired++
				continue
			}
			retained = append(retained, e)
		}
		merged.Entries = retained
		merged.LastResetDate = opts.Today
		result.RolledOver = true
	}

	if merged.Entries == nil {
		merged.Entries = []Entry{}
	}

	for _, e := range merged.Entries {
		if _, ok := fresh[e.Timestamp.UnixNano()]; ok {
			result.Added = append(result.Added, e)
		}
	}

	return merged, result
}
