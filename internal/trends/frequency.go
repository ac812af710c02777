package trends

import (
	"strings"

	"trendwatch/internal/feed"
)

// stopwords are dropped during tokenization. The list covers the filler
// vocabulary that dominates short social posts; domain terms stay.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "day": true,
	"get": true, "has": true, "him": true, "his": true, "how": true,
	"man": true, "new": true, "now": true, "old": true, "see": true,
	"two": true, "way": true, "who": true, "its": true, "did": true,
	"yes": true, "your": true, "this": true, "that": true, "with": true,
	"have": true, "from": true, "they": true, "been": true, "will": true,
	"what": true, "when": true, "there": true, "their": true, "about": true,
	"would": true, "these": true, "other": true, "which": true, "https": true,
	"http": true, "just": true, "like": true, "more": true, "some": true,
	"than": true, "them": true, "then": true, "into": true, "only": true,
	"over": true, "very": true, "because": true, "after": true, "before": true,
}

const minTermLength = 3

// FrequencyModel accumulates term counts for the current cycle and
// keeps exactly one prior snapshot for growth comparison.
type FrequencyModel struct {
	current  map[string]int
	previous map[string]int
	excluded map[string]bool
}

// NewFrequencyModel creates a model with an optional exclusion set of
// extra terms to drop (compared case-insensitively).
func NewFrequencyModel(excludedTerms []string) *FrequencyModel {
	excluded := make(map[string]bool, len(excludedTerms))
	for _, t := range excludedTerms {
		excluded[strings.ToLower(t)] = true
	}
	return &FrequencyModel{
		current:  make(map[string]int),
		previous: make(map[string]int),
		excluded: excluded,
	}
}

// Shift makes the current snapshot the previous one and starts a fresh
// current map. Called exactly once per cycle, before any Ingest of that
// cycle, regardless of how many batches follow.
func (m *FrequencyModel) Shift() {
	m.previous = m.current
	m.current = make(map[string]int)
}

// Ingest tokenizes the posts and accumulates counts into the current
// snapshot. Prefers each post's untruncated text when available.
func (m *FrequencyModel) Ingest(posts []feed.Post) {
	for _, p := range posts {
		for _, term := range m.tokenize(p.Content()) {
			m.current[term]++
		}
	}
}

// Current returns a copy of the current snapshot.
func (m *FrequencyModel) Current() map[string]int {
	return copyCounts(m.current)
}

// Previous returns a copy of the previous snapshot.
func (m *FrequencyModel) Previous() map[string]int {
	return copyCounts(m.previous)
}

// tokenize lowercases, strips punctuation except # and @, splits on
// whitespace, and drops stopwords, short terms, and excluded terms.
func (m *FrequencyModel) tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '#' || r == '@':
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	var terms []string
	for _, raw := range strings.Fields(cleaned) {
		// A bare marker with nothing behind it is noise.
		if raw == "#" || raw == "@" {
			continue
		}
		bare := strings.TrimLeft(raw, "#@")
		if len(bare) < minTermLength {
			continue
		}
		if stopwords[bare] || m.excluded[raw] || m.excluded[bare] {
			continue
		}
		terms = append(terms, raw)
	}
	return terms
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
