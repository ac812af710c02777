// Package feed defines the social feed contracts the detection pipeline
// consumes: a read-only post source, a publisher, and the post model.
//
// The core never talks to the network directly; it sees these
// interfaces, so the HTTP client can be swapped for fakes in tests.
package feed

import (
	"context"
	"time"
)

// Engagement carries the interaction counters attached to a post.
type Engagement struct {
	Retweets int `json:"retweets"`
	Likes    int `json:"likes"`
}

// Post is a single observation collected from the network. Identity is
// ID: two posts with the same ID are the same observation.
type Post struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	// FullText is the untruncated text when the network provides one.
	// Tokenization prefers it over Text.
	FullText   string     `json:"full_text,omitempty"`
	Author     string     `json:"author,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	Engagement Engagement `json:"engagement"`
}

// Content returns the richest text available for the post.
func (p Post) Content() string {
	if p.FullText != "" {
		return p.FullText
	}
	return p.Text
}

// GlobalTrend is one entry from the network's own trending list, used
// to seed queries when configured topics yield nothing.
type GlobalTrend struct {
	Name   string `json:"name"`
	Volume int    `json:"volume"`
}

// Source yields posts for queries and accounts. Implementations must be
// safe to call repeatedly; errors surface per call and the orchestrator
// treats a failing source's contribution as empty.
type Source interface {
	SearchRecent(ctx context.Context, query string, limit int) ([]Post, error)
	RecentByAuthor(ctx context.Context, account string, limit int) ([]Post, error)
	GlobalTrends(ctx context.Context) ([]GlobalTrend, error)
}

// Publisher posts a text string back to the network. The caller is
// responsible for keeping text within the network character limit.
type Publisher interface {
	Publish(ctx context.Context, text string) (string, error)
}

// FilterByEngagement keeps posts whose combined retweets+likes meet the
// floor. A floor <= 0 keeps everything (the relaxed emergency mode).
func FilterByEngagement(posts []Post, minEngagement int) []Post {
	if minEngagement <= 0 {
		return posts
	}
	kept := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Engagement.Retweets+p.Engagement.Likes >= minEngagement {
			kept = append(kept, p)
		}
	}
	return kept
}

// Dedupe merges posts by ID, keeping the first occurrence of each.
// Output order follows first appearance, so the result is invariant to
// duplicate placement.
func Dedupe(posts []Post) []Post {
	seen := make(map[string]bool, len(posts))
	unique := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		unique = append(unique, p)
	}
	return unique
}

// FilterByAge keeps posts created within maxAge of now. Posts without a
// timestamp are retained: absence means "unknown, assume recent".
func FilterByAge(posts []Post, maxAge time.Duration, now time.Time) []Post {
	if maxAge <= 0 {
		return posts
	}
	cutoff := now.Add(-maxAge)
	kept := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt == nil || !p.CreatedAt.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}
