package usage

import (
	"reflect"
	"testing"
	"time"

	"github.com/goodtune/screenbreak/internal/platform"
)

func mergeOpts(today string, retention int) MergeOptions {
	return MergeOptions{Today: today, RetentionDays: retention, Location: time.UTC}
}

func TestMerge_Idempotent(t *testing.T) {
	base := mustTime(t, "2026-10-16T10:00:00Z")
	newEntries := []Entry{
		entry(platform.TikTok, base, 30),
		entry(platform.TikTok, base.Add(30*time.Second), 30),
	}
	opts := mergeOpts("2026-10-16", 1)

	once, first := Merge(Log{}, newEntries, opts)
	twice, second := Merge(once, newEntries, opts)

	if len(first.Added) != 2 {
		t.Errorf("Expected 2 added on first merge, got %d", len(first.Added))
	}
	if second.Changed() {
		t.Errorf("Expected second merge to change nothing, got %+v", second)
	}
	if second.Duplicates != 2 {
		t.Errorf("Expected 2 duplicates, got %d", second.Duplicates)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Expected identical logs, got %+v and %+v", once, twice)
	}
}

func TestMerge_OverlappingWindows(t *testing.T) {
	base := mustTime(t, "2026-10-16T10:00:00Z")
	opts := mergeOpts("2026-10-16", 1)

	log, _ := Merge(Log{}, []Entry{
		entry(platform.TikTok, base, 30),
		entry(platform.TikTok, base.Add(30*time.Second), 30),
	}, opts)

	log, result := Merge(log, []Entry{
		entry(platform.TikTok, base.Add(30*time.Second), 30),
		entry(platform.TikTok, base.Add(60*time.Second), 45),
	}, opts)

	if len(log.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(log.Entries))
	}
	if len(result.Added) != 1 || result.Duplicates != 1 {
		t.Errorf("Expected 1 added and 1 duplicate, got %+v", result)
	}
}

func TestMerge_DropsNonPositiveDurations(t *testing.T) {
	base := mustTime(t, "2026-10-16T10:00:00Z")

	log, result := Merge(Log{LastResetDate: "2026-10-16", Entries: []Entry{
		entry(platform.TikTok, base, -5),
	}}, []Entry{
		entry(platform.TikTok, base.Add(time.Minute), 0),
		entry(platform.TikTok, base.Add(2*time.Minute), 10),
	}, mergeOpts("2026-10-16", 1))

	if len(log.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(log.Entries))
	}
	if log.Entries[0].Duration != 10 {
		t.Errorf("Expected surviving entry of 10s, got %v", log.Entries[0].Duration)
	}
	if result.Dropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", result.Dropped)
	}
}

func TestMerge_Rollover(t *testing.T) {
	yesterday := mustTime(t, "2026-10-15T22:00:00Z")
	today := mustTime(t, "2026-10-16T08:00:00Z")

	log := Log{
		LastResetDate: "2026-10-15",
		Entries: []Entry{
			entry(platform.TikTok, yesterday, 60),
			entry(platform.TikTok, today, 60),
		},
	}

	merged, result := Merge(log, nil, mergeOpts("2026-10-16", 1))

	if !result.RolledOver {
		t.Fatal("Expected rollover")
	}
	if merged.LastResetDate != "2026-10-16" {
		t.Errorf("Expected lastResetDate 2026-10-16, got %s", merged.LastResetDate)
	}
	if len(merged.Entries) != 1 || !merged.Entries[0].Timestamp.Equal(today) {
		t.Errorf("Expected only today's entry, got %+v", merged.Entries)
	}
	if result.Expired != 1 {
		t.Errorf("Expected 1 expired, got %d", result.Expired)
	}
}

func TestMerge_RetentionWindow(t *testing.T) {
	mk := func(date string) Entry {
		return entry(platform.TikTok, mustTime(t, date+"T12:00:00Z"), 60)
	}
	log := Log{
		LastResetDate: "2026-10-15",
		Entries: []Entry{
			mk("2026-10-08"),
			mk("2026-10-09"),
			mk("2026-10-10"),
			mk("2026-10-12"),
			mk("2026-10-15"),
		},
	}

	merged, result := Merge(log, nil, mergeOpts("2026-10-16", 7))

	if len(merged.Entries) != 3 {
		t.Fatalf("Expected 3 entries inside the window, got %d", len(merged.Entries))
	}
	if merged.Entries[0].Timestamp.Format(DateLayout) != "2026-10-10" {
		t.Errorf("Expected oldest kept entry on 2026-10-10, got %v", merged.Entries[0].Timestamp)
	}
	if result.Expired != 2 {
		t.Errorf("Expected 2 expired, got %d", result.Expired)
	}
}

func TestMerge_LateEntriesDiscarded(t *testing.T) {
	lateNight := mustTime(t, "2026-10-15T23:58:00Z")
	morning := mustTime(t, "2026-10-16T00:01:00Z")

	log := Log{LastResetDate: "2026-10-16", Entries: []Entry{}}

	merged, result := Merge(log, []Entry{
		entry(platform.TikTok, lateNight, 60),
		entry(platform.TikTok, morning, 60),
	}, mergeOpts("2026-10-16", 1))

	if result.Late != 1 {
		t.Errorf("Expected 1 late entry, got %d", result.Late)
	}
	if len(merged.Entries) != 1 || !merged.Entries[0].Timestamp.Equal(morning) {
		t.Errorf("Expected only the morning entry, got %+v", merged.Entries)
	}
}

func TestMerge_FutureEntriesDiscarded(t *testing.T) {
	today := mustTime(t, "2026-10-16T10:00:00Z")
	ahead := mustTime(t, "2026-10-18T10:00:00Z")

	tests := []struct {
		name      string
		lastReset string
	}{
		{"without rollover", "2026-10-16"},
		{"with rollover", "2026-10-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := Log{LastResetDate: tt.lastReset, Entries: []Entry{entry(platform.TikTok, today, 60)}}

			merged, result := Merge(log, []Entry{entry(platform.TikTok, ahead, 60)}, mergeOpts("2026-10-16", 7))

			if result.Future != 1 {
				t.Errorf("Expected 1 future entry, got %d", result.Future)
			}
			if len(result.Added) != 0 {
				t.Errorf("Expected nothing added, got %+v", result.Added)
			}
			if len(merged.Entries) != 1 || !merged.Entries[0].Timestamp.Equal(today) {
				t.Errorf("Expected only today's entry, got %+v", merged.Entries)
			}
		})
	}
}

func TestMerge_ResetDateUpdatedOncePerDay(t *testing.T) {
	base := mustTime(t, "2026-10-16T09:00:00Z")
	opts := mergeOpts("2026-10-16", 1)

	log := Log{LastResetDate: "2026-10-15", Entries: []Entry{entry(platform.TikTok, base, 10)}}

	rollovers := 0
	for i := 1; i <= 5; i++ {
		var result MergeResult
		log, result = Merge(log, []Entry{
			entry(platform.TikTok, base.Add(time.Duration(i)*time.Minute), 10),
		}, opts)
		if result.RolledOver {
			rollovers++
		}
	}

	if rollovers != 1 {
		t.Errorf("Expected exactly one rollover, got %d", rollovers)
	}
	if log.LastResetDate != "2026-10-16" {
		t.Errorf("Expected lastResetDate 2026-10-16, got %s", log.LastResetDate)
	}
	if len(log.Entries) != 6 {
		t.Errorf("Expected 6 entries, got %d", len(log.Entries))
	}
}

func TestMerge_EmptyLogNoChange(t *testing.T) {
	merged, result := Merge(Log{}, nil, mergeOpts("2026-10-16", 1))

	if result.Changed() {
		t.Errorf("Expected no change, got %+v", result)
	}
	if merged.Entries == nil || len(merged.Entries) != 0 {
		t.Errorf("Expected empty non-nil entries, got %+v", merged.Entries)
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	base := mustTime(t, "2026-10-16T09:00:00Z")
	original := []Entry{entry(platform.TikTok, base, 10)}
	log := Log{LastResetDate: "2026-10-16", Entries: original}

	Merge(log, []Entry{entry(platform.TikTok, base.Add(time.Minute), 10)}, mergeOpts("2026-10-16", 1))

	if len(log.Entries) != 1 {
		t.Errorf("Expected input log untouched, got %d entries", len(log.Entries))
	}
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		retention int
		want      string
	}{
		{0, "2026-10-16"},
		{1, "2026-10-16"},
		{2, "2026-10-15"},
		{7, "2026-10-10"},
		{20, "2026-09-27"},
	}

	for _, tt := range tests {
		if got := WindowStart("2026-10-16", tt.retention, time.UTC); got != tt.want {
			t.Errorf("WindowStart(%d) = %s, want %s", tt.retention, got, tt.want)
		}
	}
}
