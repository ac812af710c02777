// Package topics owns the mutable set of hashtags, accounts, and
// categories being monitored, persists it to disk after every mutation,
// and expands it through oracle-driven discovery.
package topics

import (
	"strings"
	"time"
)

// historyLimit bounds the retained discovery records.
const historyLimit = 20

// Category is a monitored subject area that can be toggled on and off.
type Category struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DiscoveryCycleRecord captures one discovery pass for auditability.
type DiscoveryCycleRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	AddedHashtags []string  `json:"added_hashtags"`
	AddedAccounts []string  `json:"added_accounts"`
	Source        string    `json:"source"` // "oracle", "global-trends", "emergency"
}

// TopicSet is the persisted monitoring state. Hashtags carry a leading
// '#'; accounts never carry a leading '@'; both sets are deduplicated.
type TopicSet struct {
	Hashtags    []string               `json:"hashtags"`
	Accounts    []string               `json:"accounts"`
	Categories  []Category             `json:"categories"`
	LastUpdated time.Time              `json:"last_updated"`
	History     []DiscoveryCycleRecord `json:"history"`
}

// CanonicalHashtag lowercases the tag and ensures a leading '#'.
// Returns "" for input that normalizes to nothing.
func CanonicalHashtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.TrimLeft(tag, "#")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

// CanonicalAccount lowercases the handle and strips a leading '@'.
func CanonicalAccount(account string) string {
	account = strings.ToLower(strings.TrimSpace(account))
	return strings.TrimLeft(account, "@")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) ([]string, bool) {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}
