// Package trends implements the trend-detection core: term frequency
// tracking across cycles, emerging-trend identification, the optional
// AI corroboration path, synthetic fallback generation, and report
// formatting.
package trends

import (
	"time"
)

// --- Sentiment enum ---

// Sentiment classifies the tone attached to a trend by the oracle.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// validSentiments is the set of allowed sentiment values.
var validSentiments = map[Sentiment]bool{
	SentimentPositive: true,
	SentimentNegative: true,
	SentimentNeutral:  true,
}

// ParseSentiment normalizes an oracle-supplied sentiment string.
// Unknown values map to neutral rather than erroring; sentiment is
// advisory metadata, not a correctness surface.
func ParseSentiment(s string) Sentiment {
	sent := Sentiment(s)
	if validSentiments[sent] {
		return sent
	}
	return SentimentNeutral
}

// Trend is one emerging term with its growth evidence. All optional
// attributes are declared up front; nothing is attached ad hoc.
type Trend struct {
	Term       string  `json:"term"`
	Count      int     `json:"count"`
	GrowthRate float64 `json:"growth_rate"` // percent, can exceed 100
	IsNew      bool    `json:"is_new"`      // true iff previous count was zero

	Category  string    `json:"category,omitempty"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Context   string    `json:"context,omitempty"`

	// IsSynthetic marks trends fabricated in the absence of real data.
	// Downstream reporting must be able to disclose provenance.
	IsSynthetic bool `json:"is_synthetic"`

	// Enrichment holds raw tool-server results keyed by capability id.
	Enrichment map[string]string `json:"enrichment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FilterByAge keeps trends whose CreatedAt is within maxAge of now.
// A zero CreatedAt is retained (unknown, assume current). Pure function.
func FilterByAge(list []Trend, maxAge time.Duration, now time.Time) []Trend {
	if maxAge <= 0 {
		return list
	}
	cutoff := now.Add(-maxAge)
	kept := make([]Trend, 0, len(list))
	for _, t := range list {
		if t.CreatedAt.IsZero() || !t.CreatedAt.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Terms extracts the term strings from a trend list, in order.
func Terms(list []Trend) []string {
	terms := make([]string, len(list))
	for i, t := range list {
		terms[i] = t.Term
	}
	return terms
}

// --- History ---

// History retains the trend lists of the last N cycles, oldest evicted.
// It exists for AI context continuity: the corroborator feeds known
// terms back into the oracle prompt.
type History struct {
	size   int
	cycles [][]Trend
}

// NewHistory creates a history bounded to size cycles. Size must be
// at least 1.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{size: size}
}

// Push appends a cycle's trend list, evicting the oldest when full.
func (h *History) Push(cycle []Trend) {
	h.cycles = append(h.cycles, cycle)
	if len(h.cycles) > h.size {
		h.cycles = h.cycles[len(h.cycles)-h.size:]
	}
}

// Len reports the number of retained cycles.
func (h *History) Len() int { return len(h.cycles) }

// Cycles returns the retained cycles, oldest first.
func (h *History) Cycles() [][]Trend {
	out := make([][]Trend, len(h.cycles))
	copy(out, h.cycles)
	return out
}

// KnownTerms returns the distinct terms seen across retained cycles,
// most recent cycle first, deduplicated.
func (h *History) KnownTerms() []string {
	seen := make(map[string]bool)
	var terms []string
	for i := len(h.cycles) - 1; i >= 0; i-- {
		for _, t := range h.cycles[i] {
			if seen[t.Term] {
				continue
			}
			seen[t.Term] = true
			terms = append(terms, t.Term)
		}
	}
	return terms
}
