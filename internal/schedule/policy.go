// Package schedule provides the named-task cron runner and the adaptive
// cadence policy that retunes it from observed cycle yield.
package schedule

import (
	"fmt"

	"trendwatch/internal/stats"
)

// --- Activity level enum ---

// ActivityLevel is the coarse classification of recent cycle yield.
type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

// minSamples is how many sliding-window entries the policy needs before
// deviating from the default cadence.
const minSamples = 3

// failingSuccessRate forces the low cadence regardless of volume: a
// high-volume-but-failing feed should slow down, not speed up.
const failingSuccessRate = 0.3

// PolicyConfig holds the interval band and the activity thresholds.
type PolicyConfig struct {
	MinIntervalMinutes     int
	DefaultIntervalMinutes int
	MaxIntervalMinutes     int
	HighActivityThreshold  int
	LowActivityThreshold   int
}

// Policy recomputes the detection cadence from accumulated statistics.
// It is a pure decision function: no failure mode, no side effects.
type Policy struct {
	cfg PolicyConfig
}

// NewPolicy creates the adaptive cadence policy.
func NewPolicy(cfg PolicyConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Recompute classifies activity and returns the matching cron
// expression. With fewer than three window samples the level stays
// medium regardless of the values seen.
func (p *Policy) Recompute(s stats.CycleStatistics) (string, ActivityLevel) {
	level := ActivityMedium
	if len(s.CycleTweetCounts) >= minSamples {
		switch {
		case s.AverageTweetsPerCycle > float64(p.cfg.HighActivityThreshold):
			level = ActivityHigh
		case s.AverageTweetsPerCycle < float64(p.cfg.LowActivityThreshold):
			level = ActivityLow
		}
	}

	// Low yield overrides volume.
	total := s.SuccessfulCycles + s.FailedCycles
	if total > 0 && float64(s.SuccessfulCycles)/float64(total) < failingSuccessRate {
		level = ActivityLow
	}

	return CronExpression(p.interval(level)), level
}

func (p *Policy) interval(level ActivityLevel) int {
	switch level {
	case ActivityHigh:
		return p.cfg.MinIntervalMinutes
	case ActivityLow:
		return p.cfg.MaxIntervalMinutes
	default:
		return p.cfg.DefaultIntervalMinutes
	}
}

// CronExpression maps an interval in minutes to a standard five-field
// cron spec: minute steps under an hour, hour steps above.
func CronExpression(minutes int) string {
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return fmt.Sprintf("*/%d * * * *", minutes)
	}
	hours := minutes / 60
	return fmt.Sprintf("0 */%d * * *", hours)
}
