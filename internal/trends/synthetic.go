package trends

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trendwatch/internal/oracle"
)

const syntheticSystemPrompt = `You are a social media trend analyst. No ` +
	`real posts could be collected this cycle. Propose 5-8 plausible topics ` +
	`currently trending on social networks. Respond with a JSON array of ` +
	`objects: {"term", "category", "confidence" (0-100), "context" (one ` +
	`sentence), "sentiment" (positive|negative|neutral)}.`

// evergreenPool is the static fallback candidate list used when no
// oracle is configured. Seasonal terms are appended per month.
var evergreenPool = []string{
	"#AI", "#technology", "#breakingnews", "#sports", "#music",
	"#gaming", "#science", "#health", "#climate", "#economy",
}

var seasonalPool = map[time.Month][]string{
	time.January:  {"#newyear", "#resolutions"},
	time.February: {"#valentines"},
	time.March:    {"#spring"},
	time.June:     {"#summer"},
	time.July:     {"#vacation"},
	time.October:  {"#halloween"},
	time.November: {"#blackfriday"},
	time.December: {"#holidays", "#yearinreview"},
}

// regenerationCooldown bounds how often synthetic trends are generated.
const regenerationCooldown = time.Hour

// Synthetic fabricates plausible trends when real collection yields
// nothing. Every produced trend carries IsSynthetic: true so reporting
// can disclose provenance.
type Synthetic struct {
	oracle oracle.Client
	log    *logrus.Entry

	lastGenerated time.Time
	lastResult    []Trend

	now func() time.Time
	rng *rand.Rand
}

// NewSynthetic creates the generator. The oracle may be nil or
// unavailable; the static pool then serves as the second tier.
func NewSynthetic(oc oracle.Client, log *logrus.Logger) *Synthetic {
	return &Synthetic{
		oracle: oc,
		log:    log.WithField("component", "synthetic"),
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns synthetic trends. Inside the one-hour cooldown the
// previous result is reused rather than regenerated, unless force is
// set (autonomous mode refresh).
func (s *Synthetic) Generate(ctx context.Context, force bool) []Trend {
	now := s.now()
	if !force && len(s.lastResult) > 0 && now.Sub(s.lastGenerated) < regenerationCooldown {
		s.log.Debug("inside regeneration cooldown, reusing previous synthetic trends")
		return s.lastResult
	}

	result := s.fromOracle(ctx)
	if len(result) == 0 {
		result = s.fromPool(now)
	}

	s.lastGenerated = now
	s.lastResult = result
	return result
}

func (s *Synthetic) fromOracle(ctx context.Context) []Trend {
	if s.oracle == nil || !s.oracle.Available() {
		return nil
	}

	raw, err := s.oracle.CompleteJSON(ctx, syntheticSystemPrompt, "Generate plausible current trends.")
	if err != nil {
		s.log.WithError(err).Warn("oracle synthetic generation failed, using static pool")
		return nil
	}
	suggestions, err := oracle.ParseTrendSuggestions(raw)
	if err != nil {
		s.log.WithError(err).Warn("malformed oracle synthetic output, using static pool")
		return nil
	}

	now := s.now()
	out := make([]Trend, 0, len(suggestions))
	for _, sg := range suggestions {
		term := strings.ToLower(strings.TrimSpace(sg.Term))
		if term == "" {
			continue
		}
		growth := sg.Confidence
		if growth <= 0 {
			growth = newTermGrowth
		}
		out = append(out, Trend{
			Term:        term,
			Count:       sg.Occurrences,
			GrowthRate:  growth,
			IsNew:       true,
			Category:    sg.Category,
			Sentiment:   ParseSentiment(sg.Sentiment),
			Context:     sg.Context,
			IsSynthetic: true,
			CreatedAt:   now,
		})
	}
	return out
}

// fromPool selects 3-5 terms from the evergreen+seasonal pool and
// synthesizes plausible count and growth values.
func (s *Synthetic) fromPool(now time.Time) []Trend {
	pool := append([]string{}, evergreenPool...)
	pool = append(pool, seasonalPool[now.Month()]...)
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := 3 + s.rng.Intn(3) // 3..5
	if n > len(pool) {
		n = len(pool)
	}

	out := make([]Trend, 0, n)
	for _, term := range pool[:n] {
		out = append(out, Trend{
			Term:        strings.ToLower(term),
			Count:       5 + s.rng.Intn(20),
			GrowthRate:  float64(50 + s.rng.Intn(150)),
			IsNew:       true,
			Sentiment:   SentimentNeutral,
			Context:     fmt.Sprintf("Evergreen topic %s selected as fallback", term),
			IsSynthetic: true,
			CreatedAt:   now,
		})
	}
	return out
}
