// Package config loads trendwatch configuration from a YAML file with
// environment-variable overrides for secrets.
//
// Everything has a default: a missing config file yields a fully working
// configuration (minus API credentials, which always come from the
// environment).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all trendwatch configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Detection DetectionConfig `yaml:"detection"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Reporting ReportingConfig `yaml:"reporting"`
	Feed      FeedConfig      `yaml:"feed"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Topics    TopicsConfig    `yaml:"topics"`
	Archive   ArchiveConfig   `yaml:"archive"`

	ToolServers []ToolServerConfig `yaml:"tool_servers"`
}

// DetectionConfig tunes the trend detection pipeline.
type DetectionConfig struct {
	MinOccurrences         int      `yaml:"min_occurrences"`
	GrowthThresholdPercent float64  `yaml:"growth_threshold_percent"`
	MaxTweetAgeHours       int      `yaml:"max_tweet_age_hours"`
	TrendHistorySize       int      `yaml:"trend_history_size"`
	UseAIAnalysis          bool     `yaml:"use_ai_analysis"`
	SampleSize             int      `yaml:"sample_size"`
	ExcludedTerms          []string `yaml:"excluded_terms"`
}

// FallbackConfig gates synthetic trend generation when collection
// comes up empty.
type FallbackConfig struct {
	Enabled                 bool `yaml:"enabled"`
	GenerateSyntheticTrends bool `yaml:"generate_synthetic_trends"`
}

// DiscoveryConfig bounds autonomous topic discovery.
type DiscoveryConfig struct {
	Enabled                bool `yaml:"enabled"`
	MaxNewTopicsPerCycle   int  `yaml:"max_new_topics_per_cycle"`
	MaxNewAccountsPerCycle int  `yaml:"max_new_accounts_per_cycle"`
	RefreshIntervalHours   int  `yaml:"refresh_interval_hours"`
}

// SchedulerConfig feeds the adaptive cadence policy.
type SchedulerConfig struct {
	AutoStart                  bool `yaml:"auto_start"`
	MinIntervalMinutes         int  `yaml:"min_interval_minutes"`
	DefaultIntervalMinutes     int  `yaml:"default_interval_minutes"`
	MaxIntervalMinutes         int  `yaml:"max_interval_minutes"`
	HighActivityThreshold      int  `yaml:"high_activity_threshold"`
	LowActivityThreshold       int  `yaml:"low_activity_threshold"`
	AutonomyCheckIntervalHours int  `yaml:"autonomy_check_interval_hours"`
}

// ReportingConfig gates autonomous publication.
type ReportingConfig struct {
	AutonomousPublishing    bool   `yaml:"autonomous_publishing"`
	MinTrendsForPublication int    `yaml:"min_trends_for_publication"`
	Signature               string `yaml:"signature"`
	CharacterLimit          int    `yaml:"character_limit"`
}

// FeedConfig configures the social feed source.
type FeedConfig struct {
	BaseURL       string `yaml:"base_url"`
	BearerToken   string `yaml:"-"` // env only, never persisted
	SearchLimit   int    `yaml:"search_limit"`
	MinEngagement int    `yaml:"min_engagement"`
	TimeoutSecs   int    `yaml:"timeout_seconds"`
}

// OracleConfig configures the language-model oracle. An empty APIKey
// means no oracle; every caller has a deterministic fallback.
type OracleConfig struct {
	APIKey string `yaml:"-"` // env only
	Model  string `yaml:"model"`
}

// TopicsConfig seeds and persists the monitored topic set.
type TopicsConfig struct {
	DefaultHashtags []string `yaml:"default_hashtags"`
	DefaultAccounts []string `yaml:"default_accounts"`
	StatePath       string   `yaml:"state_path"`
	MinimumHashtags int      `yaml:"minimum_hashtags"`
	MinimumAccounts int      `yaml:"minimum_accounts"`
}

// ArchiveConfig configures the SQLite cycle archive.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// ToolServerConfig describes one external MCP tool server to connect to.
type ToolServerConfig struct {
	ID       string   `yaml:"id"`
	Protocol string   `yaml:"protocol"` // "stdio" or "http"
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	BaseURL  string   `yaml:"base_url"`
	// EnrichTool is the tool invoked once per trend with {"query": term}
	// during the Enriching stage. Empty disables enrichment from this
	// server.
	EnrichTool string `yaml:"enrich_tool"`
	// TrendingTool, when set, marks this server as the last-resort
	// source of trending topics for the autonomy monitor.
	TrendingTool string `yaml:"trending_tool"`
}

// Default returns a fully populated configuration with conservative
// detection thresholds and a medium cadence.
func Default() Config {
	return Config{
		LogLevel: "info",
		Detection: DetectionConfig{
			MinOccurrences:         3,
			GrowthThresholdPercent: 50,
			MaxTweetAgeHours:       24,
			TrendHistorySize:       10,
			UseAIAnalysis:          true,
			SampleSize:             100,
		},
		Fallback: FallbackConfig{
			Enabled:                 true,
			GenerateSyntheticTrends: true,
		},
		Discovery: DiscoveryConfig{
			Enabled:                true,
			MaxNewTopicsPerCycle:   5,
			MaxNewAccountsPerCycle: 3,
			RefreshIntervalHours:   24,
		},
		Scheduler: SchedulerConfig{
			AutoStart:                  true,
			MinIntervalMinutes:         15,
			DefaultIntervalMinutes:     30,
			MaxIntervalMinutes:         60,
			HighActivityThreshold:      50,
			LowActivityThreshold:       10,
			AutonomyCheckIntervalHours: 2,
		},
		Reporting: ReportingConfig{
			AutonomousPublishing:    false,
			MinTrendsForPublication: 3,
			Signature:               "#trends #monitoring",
			CharacterLimit:          280,
		},
		Feed: FeedConfig{
			BaseURL:     "https://api.twitter.com",
			SearchLimit: 50,
			TimeoutSecs: 30,
		},
		Oracle: OracleConfig{
			Model: "gemini-2.0-flash",
		},
		Topics: TopicsConfig{
			DefaultHashtags: []string{"#AI", "#technology", "#news"},
			DefaultAccounts: []string{},
			StatePath:       "trendwatch-topics.json",
			MinimumHashtags: 5,
			MinimumAccounts: 3,
		},
		Archive: ArchiveConfig{
			Path: "trendwatch-archive.db",
		},
	}
}

// Load reads the YAML file at path and overlays it on the defaults.
// A missing file is not an error, defaults are returned. Secrets are
// always taken from the environment (FEED_BEARER_TOKEN, GENAI_API_KEY).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.Feed.BearerToken = os.Getenv("FEED_BEARER_TOKEN")
	cfg.Oracle.APIKey = os.Getenv("GENAI_API_KEY")

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Detection.MinOccurrences < 1 {
		return fmt.Errorf("detection.min_occurrences must be >= 1, got %d", c.Detection.MinOccurrences)
	}
	if c.Detection.TrendHistorySize < 1 {
		return fmt.Errorf("detection.trend_history_size must be >= 1, got %d", c.Detection.TrendHistorySize)
	}
	if c.Scheduler.MinIntervalMinutes > c.Scheduler.DefaultIntervalMinutes ||
		c.Scheduler.DefaultIntervalMinutes > c.Scheduler.MaxIntervalMinutes {
		return fmt.Errorf("scheduler intervals must satisfy min <= default <= max")
	}
	if c.Reporting.CharacterLimit < 10 {
		return fmt.Errorf("reporting.character_limit must be >= 10, got %d", c.Reporting.CharacterLimit)
	}
	return nil
}

// MaxPostAge returns the recency window as a duration.
func (c DetectionConfig) MaxPostAge() time.Duration {
	return time.Duration(c.MaxTweetAgeHours) * time.Hour
}

// FeedTimeout returns the per-call HTTP timeout for the feed source.
func (c FeedConfig) FeedTimeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}
