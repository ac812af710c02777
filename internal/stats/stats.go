// Package stats accumulates rolling cycle statistics consumed by the
// adaptive scheduler policy and exposed through the MCP surface.
package stats

import (
	"sync"
	"time"
)

// windowSize bounds the sliding window of per-cycle tweet counts.
const windowSize = 10

// CycleStatistics tracks detection-cycle outcomes across the process
// lifetime. Mutated only by the orchestrator at defined points; never
// reset except at process start. The internal mutex exists for the MCP
// read surface, which snapshots concurrently with the task executor.
type CycleStatistics struct {
	mu sync.Mutex

	TotalTweets      int       `json:"total_tweets"`
	SuccessfulCycles int       `json:"successful_cycles"`
	FailedCycles     int       `json:"failed_cycles"`
	PublishedTrends  int       `json:"published_trends"`
	TotalTrendsFound int       `json:"total_trends_found"`
	LastCycleTime    time.Time `json:"last_cycle_time"`
	NextPostTime     time.Time `json:"next_post_time"`

	// CycleTweetCounts is the sliding window (last 10 cycles) feeding
	// AverageTweetsPerCycle, which is always its mean.
	CycleTweetCounts      []int   `json:"cycle_tweet_counts"`
	AverageTweetsPerCycle float64 `json:"average_tweets_per_cycle"`
}

// New returns zeroed statistics.
func New() *CycleStatistics {
	return &CycleStatistics{}
}

// RecordTweetCount pushes a cycle's unique post count into the sliding
// window, trims it to the last 10 entries, and recomputes the average.
func (s *CycleStatistics) RecordTweetCount(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalTweets += count
	s.CycleTweetCounts = append(s.CycleTweetCounts, count)
	if len(s.CycleTweetCounts) > windowSize {
		s.CycleTweetCounts = s.CycleTweetCounts[len(s.CycleTweetCounts)-windowSize:]
	}

	sum := 0
	for _, c := range s.CycleTweetCounts {
		sum += c
	}
	s.AverageTweetsPerCycle = float64(sum) / float64(len(s.CycleTweetCounts))
}

// RecordSuccess marks a completed cycle and its trend yield.
func (s *CycleStatistics) RecordSuccess(trendsFound int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SuccessfulCycles++
	s.TotalTrendsFound += trendsFound
	s.LastCycleTime = at
}

// RecordFailure marks a failed cycle.
func (s *CycleStatistics) RecordFailure(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailedCycles++
	s.LastCycleTime = at
}

// RecordPublication marks trends published to the network.
func (s *CycleStatistics) RecordPublication(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PublishedTrends += count
}

// SetNextPostTime records when the scheduler will fire next.
func (s *CycleStatistics) SetNextPostTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NextPostTime = t
}

// SuccessRate returns successes over total cycles, or 1 when no cycle
// has completed yet (no evidence of trouble).
func (s *CycleStatistics) SuccessRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.SuccessfulCycles + s.FailedCycles
	if total == 0 {
		return 1
	}
	return float64(s.SuccessfulCycles) / float64(total)
}

// Samples reports how many entries the sliding window holds.
func (s *CycleStatistics) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.CycleTweetCounts)
}

// Snapshot returns a copy safe to hand to readers outside the task
// executor (the policy and the MCP surface consume it).
func (s *CycleStatistics) Snapshot() CycleStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := CycleStatistics{
		TotalTweets:           s.TotalTweets,
		SuccessfulCycles:      s.SuccessfulCycles,
		FailedCycles:          s.FailedCycles,
		PublishedTrends:       s.PublishedTrends,
		TotalTrendsFound:      s.TotalTrendsFound,
		LastCycleTime:         s.LastCycleTime,
		NextPostTime:          s.NextPostTime,
		AverageTweetsPerCycle: s.AverageTweetsPerCycle,
	}
	out.CycleTweetCounts = append([]int(nil), s.CycleTweetCounts...)
	return out
}
