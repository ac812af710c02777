package topics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trendwatch/internal/oracle"
)

const discoverySystemPrompt = `You are a social media monitoring ` +
	`strategist. Given the currently monitored hashtags and accounts and ` +
	`the most recent emerging trends, suggest new hashtags and accounts ` +
	`worth monitoring. Respond with JSON: {"hashtags": [...], "accounts": ` +
	`[...]}. Suggest only terms not already monitored.`

// Manager owns the TopicSet. All mutations persist before returning;
// a persistence failure is logged and the in-memory state stays
// authoritative until the next successful write reconciles.
type Manager struct {
	set   *TopicSet
	store Store
	orc   oracle.Client
	log   *logrus.Entry

	maxNewTopics    int
	maxNewAccounts  int
	refreshInterval time.Duration

	now func() time.Time
}

// NewManager loads persisted state from the store, falling back to the
// given defaults when nothing was persisted yet.
func NewManager(store Store, orc oracle.Client, defaultHashtags, defaultAccounts []string, maxNewTopics, maxNewAccounts, refreshIntervalHours int, log *logrus.Logger) (*Manager, error) {
	set, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading topic state: %w", err)
	}
	if set == nil {
		set = &TopicSet{LastUpdated: time.Now()}
		for _, h := range defaultHashtags {
			if c := CanonicalHashtag(h); c != "" && !contains(set.Hashtags, c) {
				set.Hashtags = append(set.Hashtags, c)
			}
		}
		for _, a := range defaultAccounts {
			if c := CanonicalAccount(a); c != "" && !contains(set.Accounts, c) {
				set.Accounts = append(set.Accounts, c)
			}
		}
	}

	return &Manager{
		set:             set,
		store:           store,
		orc:             orc,
		log:             log.WithField("component", "topics"),
		maxNewTopics:    maxNewTopics,
		maxNewAccounts:  maxNewAccounts,
		refreshInterval: time.Duration(refreshIntervalHours) * time.Hour,
		now:             time.Now,
	}, nil
}

// Hashtags returns the monitored hashtags, canonical form.
func (m *Manager) Hashtags() []string {
	return append([]string(nil), m.set.Hashtags...)
}

// Accounts returns the monitored accounts, canonical form.
func (m *Manager) Accounts() []string {
	return append([]string(nil), m.set.Accounts...)
}

// ActiveCategories returns the names of categories currently active.
func (m *Manager) ActiveCategories() []string {
	var active []string
	for _, c := range m.set.Categories {
		if c.Active {
			active = append(active, c.Name)
		}
	}
	return active
}

// AddHashtag adds a hashtag, canonicalized. Returns false (no-op) for
// duplicates or empty input.
func (m *Manager) AddHashtag(tag string) bool {
	c := CanonicalHashtag(tag)
	if c == "" || contains(m.set.Hashtags, c) {
		return false
	}
	m.set.Hashtags = append(m.set.Hashtags, c)
	m.persist()
	return true
}

// AddAccount adds an account, canonicalized. Returns false for
// duplicates or empty input.
func (m *Manager) AddAccount(account string) bool {
	c := CanonicalAccount(account)
	if c == "" || contains(m.set.Accounts, c) {
		return false
	}
	m.set.Accounts = append(m.set.Accounts, c)
	m.persist()
	return true
}

// RemoveHashtag removes a hashtag. Returns whether a change occurred.
func (m *Manager) RemoveHashtag(tag string) bool {
	list, removed := remove(m.set.Hashtags, CanonicalHashtag(tag))
	if removed {
		m.set.Hashtags = list
		m.persist()
	}
	return removed
}

// RemoveAccount removes an account. Returns whether a change occurred.
func (m *Manager) RemoveAccount(account string) bool {
	list, removed := remove(m.set.Accounts, CanonicalAccount(account))
	if removed {
		m.set.Accounts = list
		m.persist()
	}
	return removed
}

// SetCategoryStatus toggles a category, creating it when unknown.
// Returns whether a change occurred.
func (m *Manager) SetCategoryStatus(name string, active bool) bool {
	for i, c := range m.set.Categories {
		if c.Name == name {
			if c.Active == active {
				return false
			}
			m.set.Categories[i].Active = active
			m.persist()
			return true
		}
	}
	m.set.Categories = append(m.set.Categories, Category{Name: name, Active: active})
	m.persist()
	return true
}

// NeedsRefresh reports whether the refresh interval has elapsed since
// the last update.
func (m *Manager) NeedsRefresh() bool {
	if m.refreshInterval <= 0 {
		return false
	}
	return m.now().Sub(m.set.LastUpdated) >= m.refreshInterval
}

// DiscoverNewTopics asks the oracle for new hashtags and accounts given
// the current set and recent trends, bounded by the per-cycle caps.
// Returns whether anything was added. Oracle problems are logged and
// reported as no discovery, never as an error.
func (m *Manager) DiscoverNewTopics(ctx context.Context, recentTrends []string) bool {
	if m.orc == nil || !m.orc.Available() {
		m.log.Debug("no oracle configured, skipping discovery")
		return false
	}

	prompt := fmt.Sprintf(
		"Monitored hashtags: %s\nMonitored accounts: %s\nRecent emerging trends: %s\n",
		strings.Join(m.set.Hashtags, ", "),
		strings.Join(m.set.Accounts, ", "),
		strings.Join(recentTrends, ", "),
	)

	raw, err := m.orc.CompleteJSON(ctx, discoverySystemPrompt, prompt)
	if err != nil {
		m.log.WithError(err).Warn("topic discovery failed")
		return false
	}
	suggestions, err := oracle.ParseTopicSuggestions(raw)
	if err != nil {
		m.log.WithError(err).Warn("malformed discovery output")
		return false
	}

	return m.Apply(suggestions.Hashtags, suggestions.Accounts, "oracle")
}

// Apply adds suggested hashtags and accounts through the dedup-enforcing
// add operations, bounded by the per-cycle caps, and appends a discovery
// record. Returns whether anything was added. Used both by oracle
// discovery and by the global-trend / emergency seeding paths.
func (m *Manager) Apply(hashtags, accounts []string, source string) bool {
	record := DiscoveryCycleRecord{Timestamp: m.now(), Source: source}

	for _, h := range hashtags {
		if len(record.AddedHashtags) >= m.maxNewTopics {
			break
		}
		if m.addHashtagNoPersist(h) {
			record.AddedHashtags = append(record.AddedHashtags, CanonicalHashtag(h))
		}
	}
	for _, a := range accounts {
		if len(record.AddedAccounts) >= m.maxNewAccounts {
			break
		}
		if m.addAccountNoPersist(a) {
			record.AddedAccounts = append(record.AddedAccounts, CanonicalAccount(a))
		}
	}

	if len(record.AddedHashtags) == 0 && len(record.AddedAccounts) == 0 {
		return false
	}

	m.set.History = append(m.set.History, record)
	if len(m.set.History) > historyLimit {
		m.set.History = m.set.History[len(m.set.History)-historyLimit:]
	}
	m.set.LastUpdated = m.now()
	m.persist()

	m.log.WithFields(logrus.Fields{
		"hashtags": record.AddedHashtags,
		"accounts": record.AddedAccounts,
		"source":   source,
	}).Info("discovered new topics")
	return true
}

// History returns the retained discovery records, oldest first.
func (m *Manager) History() []DiscoveryCycleRecord {
	return append([]DiscoveryCycleRecord(nil), m.set.History...)
}

func (m *Manager) addHashtagNoPersist(tag string) bool {
	c := CanonicalHashtag(tag)
	if c == "" || contains(m.set.Hashtags, c) {
		return false
	}
	m.set.Hashtags = append(m.set.Hashtags, c)
	return true
}

func (m *Manager) addAccountNoPersist(account string) bool {
	c := CanonicalAccount(account)
	if c == "" || contains(m.set.Accounts, c) {
		return false
	}
	m.set.Accounts = append(m.set.Accounts, c)
	return true
}

// persist writes the set durably. Failure leaves memory authoritative;
// the next successful write reconciles.
func (m *Manager) persist() {
	m.set.LastUpdated = m.now()
	if err := m.store.Save(m.set); err != nil {
		m.log.WithError(err).Error("persisting topic state failed")
	}
}
