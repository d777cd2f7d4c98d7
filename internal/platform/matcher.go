package platform

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Platform is the display label of a tracked short-form video platform.
type Platform string

const (
	YouTubeShorts  Platform = "YouTube Shorts"
	InstagramReels Platform = "Instagram Reels"
	TikTok         Platform = "TikTok"
)

// Rule maps a URL fragment to a platform label.
type Rule struct {
	Fragment string
	Label    Platform
}

// DefaultRules is the built-in, ordered platform table. Earlier rules win.
var DefaultRules = []Rule{
	{Fragment: "youtube.com/shorts", Label: YouTubeShorts},
	{Fragment: "instagram.com/reels", Label: InstagramReels},
	{Fragment: "tiktok.com", Label: TikTok},
}

type result struct {
	label Platform
	ok    bool
}

// Matcher classifies browser URLs into tracked platforms.
// It is safe for concurrent use.
type Matcher struct {
	rules []Rule
	cache *lru.Cache[string, result]
}

// NewMatcher creates a matcher over the given rules. A cacheSize of zero
// disables memoization.
func NewMatcher(rules []Rule, cacheSize int) (*Matcher, error) {
	m := &Matcher{rules: make([]Rule, 0, len(rules))}

	for i, r := range rules {
		fragment := strings.ToLower(strings.TrimSpace(r.Fragment))
		if fragment == "" {
			return nil, fmt.Errorf("rule %d: empty fragment", i)
		}
		if r.Label == "" {
			return nil, fmt.Errorf("rule %d: empty label", i)
		}
		m.rules = append(m.rules, Rule{Fragment: fragment, Label: r.Label})
	}

	if cacheSize > 0 {
		cache, err := lru.New[string, result](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create match cache: %w", err)
		}
		m.cache = cache
	}

	return m, nil
}

// Default returns a matcher over DefaultRules without a cache.
func Default() *Matcher {
	m, _ := NewMatcher(DefaultRules, 0)
	return m
}

// Match returns the platform whose fragment is contained in the lower-cased
// url. The first rule in table order wins.
func (m *Matcher) Match(url string) (Platform, bool) {
	if url == "" {
		return "", false
	}

	if m.cache != nil {
		if r, ok := m.cache.Get(url); ok {
			return r.label, r.ok
		}
	}

	r := m.match(strings.ToLower(url))

	if m.cache != nil {
		m.cache.Add(url, r)
	}

	return r.label, r.ok
}

func (m *Matcher) match(lower string) result {
	for _, rule := range m.rules {
		if strings.Contains(lower, rule.Fragment) {
			return result{label: rule.Label, ok: true}
		}
	}
	return result{}
}

// Rules returns a copy of the matcher's table.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}
