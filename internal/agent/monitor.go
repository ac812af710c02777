package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"trendwatch/internal/feed"
	"trendwatch/internal/oracle"
	"trendwatch/internal/toolhub"
	"trendwatch/internal/topics"
)

const emergencyDiscoveryPrompt = `The monitoring source set has shrunk ` +
	`below its operating floor. Suggest hashtags and accounts that reliably ` +
	`produce discussion volume on a social network right now. Respond with ` +
	`JSON: {"hashtags": [...], "accounts": [...]}.`

// Monitor is the periodic self-sufficiency audit: when the monitored
// source set shrinks below its floors it runs an emergency discovery
// chain distinct from normal discovery. Every step is independently
// best-effort; Check never raises.
type Monitor struct {
	topicsMgr *topics.Manager
	source    feed.Source
	orc       oracle.Client
	hub       *toolhub.Hub
	log       *logrus.Entry

	minHashtags int
	minAccounts int

	// fallbackServer identifies the external tool server consulted as
	// the last emergency tier, if one is configured.
	fallbackServer string
	fallbackTool   string
}

// NewMonitor creates the autonomy monitor with the configured floors.
func NewMonitor(topicsMgr *topics.Manager, source feed.Source, orc oracle.Client, hub *toolhub.Hub, minHashtags, minAccounts int, fallbackServer, fallbackTool string, log *logrus.Logger) *Monitor {
	return &Monitor{
		topicsMgr:      topicsMgr,
		source:         source,
		orc:            orc,
		hub:            hub,
		log:            log.WithField("component", "autonomy"),
		minHashtags:    minHashtags,
		minAccounts:    minAccounts,
		fallbackServer: fallbackServer,
		fallbackTool:   fallbackTool,
	}
}

// Check audits the monitored source set and, when insufficient, runs
// the emergency discovery chain: global-trend seeding, oracle-generated
// emergency topics, then the external protocol fallback source.
func (m *Monitor) Check(ctx context.Context) {
	hashtags := len(m.topicsMgr.Hashtags())
	accounts := len(m.topicsMgr.Accounts())

	if hashtags >= m.minHashtags && accounts >= m.minAccounts {
		m.log.WithFields(logrus.Fields{
			"hashtags": hashtags,
			"accounts": accounts,
		}).Debug("source set sufficient")
		return
	}

	m.log.WithFields(logrus.Fields{
		"hashtags":     hashtags,
		"accounts":     accounts,
		"min_hashtags": m.minHashtags,
		"min_accounts": m.minAccounts,
	}).Warn("source set below floor, starting emergency discovery")

	m.seedFromGlobalTrends(ctx)
	m.seedFromOracle(ctx)
	m.seedFromFallbackServer(ctx)
}

func (m *Monitor) seedFromGlobalTrends(ctx context.Context) {
	global, err := m.source.GlobalTrends(ctx)
	if err != nil {
		m.log.WithError(err).Warn("emergency global-trend seeding failed")
		return
	}

	var tags []string
	for _, t := range global {
		if strings.HasPrefix(t.Name, "#") {
			tags = append(tags, t.Name)
		}
	}
	if m.topicsMgr.Apply(tags, nil, "global-trends") {
		m.log.Info("emergency seeding from global trends succeeded")
	}
}

func (m *Monitor) seedFromOracle(ctx context.Context) {
	if m.orc == nil || !m.orc.Available() {
		return
	}

	prompt := fmt.Sprintf("Currently monitored hashtags: %s\nCurrently monitored accounts: %s\n",
		strings.Join(m.topicsMgr.Hashtags(), ", "),
		strings.Join(m.topicsMgr.Accounts(), ", "))

	raw, err := m.orc.CompleteJSON(ctx, emergencyDiscoveryPrompt, prompt)
	if err != nil {
		m.log.WithError(err).Warn("emergency oracle discovery failed")
		return
	}
	suggestions, err := oracle.ParseTopicSuggestions(raw)
	if err != nil {
		m.log.WithError(err).Warn("malformed emergency discovery output")
		return
	}
	if m.topicsMgr.Apply(suggestions.Hashtags, suggestions.Accounts, "emergency") {
		m.log.Info("emergency oracle discovery succeeded")
	}
}

func (m *Monitor) seedFromFallbackServer(ctx context.Context) {
	if m.hub == nil || m.fallbackServer == "" || !m.hub.HasCapability(m.fallbackServer) {
		return
	}
	if !slices.Contains(m.hub.Tools(m.fallbackServer), m.fallbackTool) {
		m.log.WithFields(logrus.Fields{
			"server": m.fallbackServer,
			"tool":   m.fallbackTool,
		}).Warn("fallback server does not expose the configured trending tool")
		return
	}

	raw, err := m.hub.CallTool(ctx, m.fallbackServer, m.fallbackTool, map[string]any{
		"kind": "trending_topics",
	})
	if err != nil {
		m.log.WithError(err).Warn("emergency fallback server failed")
		return
	}

	// The fallback source returns plain terms, one per line.
	var tags []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}
	if m.topicsMgr.Apply(tags, nil, "emergency") {
		m.log.Info("emergency fallback server seeding succeeded")
	}
}
