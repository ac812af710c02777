package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"trendwatch/internal/archive"
	"trendwatch/internal/config"
	"trendwatch/internal/feed"
	"trendwatch/internal/mcpserver"
	"trendwatch/internal/oracle"
	"trendwatch/internal/schedule"
	"trendwatch/internal/stats"
	"trendwatch/internal/toolhub"
	"trendwatch/internal/topics"
	"trendwatch/internal/trends"
)

// discoveryCheckSpec is how often the discovery task wakes up to look
// for a pending request or an elapsed refresh interval. The task body
// decides whether there is anything to do.
const discoveryCheckSpec = "*/10 * * * *"

// App is the application composition root: it creates concrete
// implementations and injects them into everything that depends on
// abstractions. No business logic lives here, only wiring.
type App struct {
	Cfg          config.Config
	Log          *logrus.Logger
	Orchestrator *Orchestrator
	Monitor      *Monitor
	Hub          *toolhub.Hub
	Runner       *schedule.Runner

	archiveStore *archive.Store
}

// NewApp resolves every dependency from the configuration. The feed
// credentials are verified up front: a monitoring agent that cannot
// reach its feed has nothing to do, so a bad token fails startup.
func NewApp(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	source := feed.NewHTTPClient(cfg.Feed.BaseURL, cfg.Feed.BearerToken, cfg.Feed.FeedTimeout())
	if err := source.Verify(ctx); err != nil {
		return nil, fmt.Errorf("verifying feed credentials: %w", err)
	}

	orc := newOracle(ctx, cfg, log)

	topicStore := topics.NewFileStore(cfg.Topics.StatePath)
	topicsMgr, err := topics.NewManager(
		topicStore, orc,
		cfg.Topics.DefaultHashtags, cfg.Topics.DefaultAccounts,
		cfg.Discovery.MaxNewTopicsPerCycle, cfg.Discovery.MaxNewAccountsPerCycle,
		cfg.Discovery.RefreshIntervalHours,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("loading topic state: %w", err)
	}

	// The archive is an independent subsystem: if it fails to open,
	// detection keeps working and history tools report empty.
	archiveStore, err := archive.New(cfg.Archive.Path)
	if err != nil {
		log.WithError(err).Warn("cycle archive disabled")
		archiveStore = nil
	}

	freq := trends.NewFrequencyModel(cfg.Detection.ExcludedTerms)
	corroborator := trends.NewCorroborator(
		orc, freq,
		cfg.Detection.SampleSize, cfg.Detection.MinOccurrences,
		cfg.Detection.GrowthThresholdPercent,
		log,
	)
	synthetic := trends.NewSynthetic(orc, log)

	hub := toolhub.New(log)
	hub.ConnectAll(ctx, cfg.ToolServers)

	runner := schedule.NewRunner(log)
	policy := schedule.NewPolicy(schedule.PolicyConfig{
		MinIntervalMinutes:     cfg.Scheduler.MinIntervalMinutes,
		DefaultIntervalMinutes: cfg.Scheduler.DefaultIntervalMinutes,
		MaxIntervalMinutes:     cfg.Scheduler.MaxIntervalMinutes,
		HighActivityThreshold:  cfg.Scheduler.HighActivityThreshold,
		LowActivityThreshold:   cfg.Scheduler.LowActivityThreshold,
	})

	orchestrator := NewOrchestrator(
		cfg, source, source,
		freq, corroborator, synthetic,
		topicsMgr, stats.New(),
		hub, archiveStore, runner, policy,
		log,
	)

	fallbackServer, fallbackTool := trendingFallback(cfg.ToolServers)
	monitor := NewMonitor(
		topicsMgr, source, orc, hub,
		cfg.Topics.MinimumHashtags, cfg.Topics.MinimumAccounts,
		fallbackServer, fallbackTool,
		log,
	)

	return &App{
		Cfg:          cfg,
		Log:          log,
		Orchestrator: orchestrator,
		Monitor:      monitor,
		Hub:          hub,
		Runner:       runner,
		archiveStore: archiveStore,
	}, nil
}

// Start registers the three scheduled tasks and starts the runner. With
// auto-start disabled only the maintenance tasks run; detection cycles
// then happen solely on demand via RunCycle.
func (a *App) Start(ctx context.Context) error {
	if a.Cfg.Scheduler.AutoStart {
		spec := schedule.CronExpression(a.Cfg.Scheduler.DefaultIntervalMinutes)
		if err := a.Runner.Schedule(TaskTrendDetection, spec, func() {
			a.Orchestrator.RunCycle(ctx)
		}); err != nil {
			return fmt.Errorf("scheduling detection task: %w", err)
		}
	}

	if err := a.Runner.Schedule(TaskTopicDiscovery, discoveryCheckSpec, func() {
		a.Orchestrator.RunDiscovery(ctx)
	}); err != nil {
		return fmt.Errorf("scheduling discovery task: %w", err)
	}

	autonomySpec := schedule.CronExpression(a.Cfg.Scheduler.AutonomyCheckIntervalHours * 60)
	if err := a.Runner.Schedule(TaskAutonomyCheck, autonomySpec, func() {
		a.Monitor.Check(ctx)
	}); err != nil {
		return fmt.Errorf("scheduling autonomy task: %w", err)
	}

	a.Runner.Start()
	a.Log.Info("scheduler started")
	return nil
}

// MCPServerDeps assembles the dependency set for the protocol layer.
func (a *App) MCPServerDeps() mcpserver.Deps {
	var routes []mcpserver.EnrichRoute
	for _, s := range a.Cfg.ToolServers {
		if s.EnrichTool != "" {
			routes = append(routes, mcpserver.EnrichRoute{ServerID: s.ID, Tool: s.EnrichTool})
		}
	}

	deps := mcpserver.Deps{
		Reader:    a.Orchestrator,
		Topics:    a.Orchestrator.TopicManager(),
		Enricher:  a.Hub,
		EnrichVia: routes,
	}
	if a.archiveStore != nil {
		deps.Archive = a.archiveStore
	}
	return deps
}

// Close stops the scheduler (waiting for in-flight tasks), disconnects
// the tool servers, and closes the archive.
func (a *App) Close() {
	a.Runner.Stop()
	a.Hub.Close()
	if a.archiveStore != nil {
		if err := a.archiveStore.Close(); err != nil {
			a.Log.WithError(err).Warn("closing archive failed")
		}
	}
}

// newOracle builds the language-model client, downgrading to the
// disabled no-op when no key is configured or the client cannot be
// created. Every oracle consumer has a deterministic fallback, so this
// never fails startup.
func newOracle(ctx context.Context, cfg config.Config, log *logrus.Logger) oracle.Client {
	client, err := oracle.NewGenAI(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model)
	if err != nil {
		if errors.Is(err, oracle.ErrUnavailable) {
			log.Info("oracle disabled, using deterministic analysis only")
		} else {
			log.WithError(err).Warn("oracle unavailable, using deterministic analysis only")
		}
		return oracle.Disabled{}
	}
	return client
}

// trendingFallback picks the first tool server that advertises a
// trending-topics tool for the autonomy monitor's last emergency tier.
func trendingFallback(servers []config.ToolServerConfig) (string, string) {
	for _, s := range servers {
		if s.TrendingTool != "" {
			return s.ID, s.TrendingTool
		}
	}
	return "", ""
}
