package trends

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trendwatch/internal/feed"
	"trendwatch/internal/oracle"
)

const corroboratorSystemPrompt = `You are a social media trend analyst. ` +
	`You receive a sample of recent posts and a list of terms already known ` +
	`to be trending. Identify emerging topics in the sample. Respond with a ` +
	`JSON array of objects: {"term", "category", "confidence" (0-100), ` +
	`"context" (one sentence), "sentiment" (positive|negative|neutral), ` +
	`"occurrences" (optional count)}. Report at most 10 terms. Prefer ` +
	`hashtags as terms where the posts use them.`

// Corroborator asks the language-model oracle to corroborate or replace
// the deterministic frequency analysis. It never fails a cycle: any
// oracle problem downgrades to the Identify path for that cycle.
type Corroborator struct {
	oracle oracle.Client
	model  *FrequencyModel
	log    *logrus.Entry

	sampleSize      int
	minOccurrences  int
	growthThreshold float64

	// rng is injectable for deterministic sampling in tests.
	rng *rand.Rand
}

// NewCorroborator wires the corroborator to the shared frequency model
// so oracle output can be cross-referenced against real counts.
func NewCorroborator(oc oracle.Client, model *FrequencyModel, sampleSize, minOccurrences int, growthThreshold float64, log *logrus.Logger) *Corroborator {
	if sampleSize <= 0 {
		sampleSize = 100
	}
	return &Corroborator{
		oracle:          oc,
		model:           model,
		log:             log.WithField("component", "corroborator"),
		sampleSize:      sampleSize,
		minOccurrences:  minOccurrences,
		growthThreshold: growthThreshold,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Analyze returns the cycle's trend list. The oracle path is attempted
// first; on unavailability, malformed output, or an empty result it
// falls back to the deterministic Identify path.
func (c *Corroborator) Analyze(ctx context.Context, posts []feed.Post, knownTerms []string) []Trend {
	if c.oracle == nil || !c.oracle.Available() {
		return c.deterministic()
	}

	suggestions, err := c.consult(ctx, posts, knownTerms)
	if err != nil {
		c.log.WithError(err).Warn("oracle analysis failed, using frequency analysis")
		return c.deterministic()
	}
	if len(suggestions) == 0 {
		c.log.Debug("oracle returned no trends, using frequency analysis")
		return c.deterministic()
	}

	return c.merge(suggestions)
}

func (c *Corroborator) deterministic() []Trend {
	return Identify(c.model.Current(), c.model.Previous(), c.minOccurrences, c.growthThreshold)
}

func (c *Corroborator) consult(ctx context.Context, posts []feed.Post, knownTerms []string) ([]oracle.TrendSuggestion, error) {
	sample := c.sample(posts)

	var sb strings.Builder
	if len(knownTerms) > 0 {
		fmt.Fprintf(&sb, "Known trending terms: %s\n\n", strings.Join(knownTerms, ", "))
	}
	fmt.Fprintf(&sb, "Posts (%d):\n", len(sample))
	for _, p := range sample {
		fmt.Fprintf(&sb, "- %s\n", p.Content())
	}

	raw, err := c.oracle.CompleteJSON(ctx, corroboratorSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}
	return oracle.ParseTrendSuggestions(raw)
}

// sample returns up to sampleSize posts, chosen by random sampling
// without replacement when the corpus is larger.
func (c *Corroborator) sample(posts []feed.Post) []feed.Post {
	if len(posts) <= c.sampleSize {
		return posts
	}
	idx := c.rng.Perm(len(posts))[:c.sampleSize]
	sort.Ints(idx)
	sample := make([]feed.Post, 0, c.sampleSize)
	for _, i := range idx {
		sample = append(sample, posts[i])
	}
	return sample
}

// merge maps oracle suggestions into Trend values, cross-referencing
// counts and growth against the deterministic snapshots. Oracle output
// is not trusted blindly for numbers.
func (c *Corroborator) merge(suggestions []oracle.TrendSuggestion) []Trend {
	current := c.model.Current()
	previous := c.model.Previous()
	now := time.Now()

	out := make([]Trend, 0, len(suggestions))
	for _, s := range suggestions {
		term := strings.TrimSpace(s.Term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)

		count, prev := current[key], previous[key]
		// Oracle terms sometimes drop the hashtag marker; try the
		// marked form before distrusting the model's counts.
		if count == 0 && prev == 0 && !strings.HasPrefix(key, "#") {
			if marked := "#" + key; current[marked] > 0 || previous[marked] > 0 {
				key = marked
				count, prev = current[marked], previous[marked]
			}
		}
		if count == 0 {
			count = s.Occurrences
		}

		growth := s.Confidence
		if growth <= 0 {
			if prev > 0 {
				growth = float64(count-prev) / float64(prev) * 100
			} else {
				growth = newTermGrowth
			}
		}

		out = append(out, Trend{
			Term:       key,
			Count:      count,
			GrowthRate: growth,
			IsNew:      prev == 0,
			Category:   s.Category,
			Sentiment:  ParseSentiment(s.Sentiment),
			Context:    s.Context,
			CreatedAt:  now,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthRate != out[j].GrowthRate {
			return out[i].GrowthRate > out[j].GrowthRate
		}
		return out[i].Count > out[j].Count
	})
	return out
}
