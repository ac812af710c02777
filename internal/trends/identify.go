package trends

import (
	"sort"
	"time"
)

// newTermGrowth is the growth rate assigned to a term with no prior
// occurrences: by convention 100%, paired with IsNew.
const newTermGrowth = 100

// Identify compares the current snapshot against the previous one and
// returns emerging trends, sorted by growth rate descending with count
// descending as tie-break. Pure function: no I/O, deterministic for a
// fixed input (map iteration order is absorbed by the full sort).
//
// A term qualifies when its current count meets minOccurrences and its
// growth meets growthThreshold (inclusive). Terms absent from the
// previous snapshot are new and get the conventional 100% growth.
func Identify(current, previous map[string]int, minOccurrences int, growthThreshold float64) []Trend {
	now := time.Now()
	var out []Trend

	for term, count := range current {
		if count < minOccurrences {
			continue
		}

		prev := previous[term]
		var growth float64
		isNew := false
		if prev > 0 {
			growth = float64(count-prev) / float64(prev) * 100
		} else {
			growth = newTermGrowth
			isNew = true
		}

		if growth < growthThreshold {
			continue
		}

		out = append(out, Trend{
			Term:       term,
			Count:      count,
			GrowthRate: growth,
			IsNew:      isNew,
			CreatedAt:  now,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthRate != out[j].GrowthRate {
			return out[i].GrowthRate > out[j].GrowthRate
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}
