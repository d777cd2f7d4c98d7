package usage

import (
	"sort"

	"github.com/goodtune/screenbreak/internal/platform"
)

// Derive converts observations into usage entries by pairing consecutive
// matched observations. Each entry is attributed to the platform seen at the
// start of its interval. Observations that are not OCR, carry no URL, or do
// not match a tracked platform are ignored. Intervals that are not strictly
// positive are dropped.
func Derive(observations []Observation, matcher *platform.Matcher) []Entry {
	candidates := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Kind != KindOCR || obs.BrowserURL == "" {
			continue
		}
		candidates = append(candidates, obs)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})

	entries := []Entry{}

	var (
		last     Observation
		lastSeen bool
		lastPlat platform.Platform
	)

	for _, obs := range candidates {
		label, ok := matcher.Match(obs.BrowserURL)
		if !ok {
			continue
		}

		if lastSeen {
			seconds := obs.Timestamp.Sub(last.Timestamp).Seconds()
			if seconds > 0 {
				entries = append(entries, Entry{
					Platform:  lastPlat,
					Timestamp: last.Timestamp,
					Duration:  seconds,
				})
			}
		}

		last = obs
		lastSeen = true
		lastPlat = label
	}

	return entries
}
