// Package agent contains the detection cycle orchestrator (the control
// loop that collects posts, turns them into ranked emerging trends,
// falls back when data is absent, publishes, enriches, and retunes its
// own cadence), the autonomy monitor, and the application wiring.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"trendwatch/internal/archive"
	"trendwatch/internal/config"
	"trendwatch/internal/feed"
	"trendwatch/internal/schedule"
	"trendwatch/internal/stats"
	"trendwatch/internal/toolhub"
	"trendwatch/internal/topics"
	"trendwatch/internal/trends"
)

// collectConcurrency bounds the fan-out across hashtags and accounts
// during the Collecting stage.
const collectConcurrency = 4

// emergencyTerms are the broad queries used when both the configured
// topics and the global trend seed produced nothing.
var emergencyTerms = []string{"breaking news", "trending", "viral"}

// TaskTrendDetection is the scheduler name of the main cycle; the
// runner guarantees firings of the same name never overlap.
const (
	TaskTrendDetection = "trend-detection"
	TaskTopicDiscovery = "topic-discovery"
	TaskAutonomyCheck  = "autonomy-check"
)

// ScheduleState is the currently active cadence, mutated only by the
// Adapting stage.
type ScheduleState struct {
	CurrentCron   string                 `json:"current_cron"`
	ActivityLevel schedule.ActivityLevel `json:"activity_level"`
}

// Orchestrator drives one detection cycle per scheduler firing. It is
// the single point that must never let an error escape: every stage is
// wrapped, and anything unexpected downgrades the cycle to failed.
type Orchestrator struct {
	cfg config.Config
	log *logrus.Entry

	source    feed.Source
	publisher feed.Publisher

	freq         *trends.FrequencyModel
	corroborator *trends.Corroborator
	synthetic    *trends.Synthetic
	topicsMgr    *topics.Manager
	history      *trends.History
	statistics   *stats.CycleStatistics
	hub          *toolhub.Hub
	archiveStore *archive.Store
	runner       *schedule.Runner
	policy       *schedule.Policy

	// execMu serializes the scheduled tasks (detection, discovery,
	// autonomy) so shared state is only ever mutated by one of them at
	// a time, matching the single-executor model the statistics and
	// topic set rely on.
	execMu sync.Mutex

	// mu guards the read surface consumed by the MCP layer, which runs
	// outside the task executor.
	mu            sync.RWMutex
	current       []trends.Trend
	scheduleState ScheduleState

	// discoveryRequests is the explicit task-queue submission used by
	// the fallback chain: capacity 1, so at most one request is ever
	// pending and enqueueing never blocks a cycle.
	discoveryRequests chan struct{}
}

// NewOrchestrator wires the control loop. All collaborators are
// injected; nothing here owns a global.
func NewOrchestrator(
	cfg config.Config,
	source feed.Source,
	publisher feed.Publisher,
	freq *trends.FrequencyModel,
	corroborator *trends.Corroborator,
	synthetic *trends.Synthetic,
	topicsMgr *topics.Manager,
	statistics *stats.CycleStatistics,
	hub *toolhub.Hub,
	archiveStore *archive.Store,
	runner *schedule.Runner,
	policy *schedule.Policy,
	log *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		log:          log.WithField("component", "orchestrator"),
		source:       source,
		publisher:    publisher,
		freq:         freq,
		corroborator: corroborator,
		synthetic:    synthetic,
		topicsMgr:    topicsMgr,
		history:      trends.NewHistory(cfg.Detection.TrendHistorySize),
		statistics:   statistics,
		hub:          hub,
		archiveStore: archiveStore,
		runner:       runner,
		policy:       policy,
		scheduleState: ScheduleState{
			CurrentCron:   schedule.CronExpression(cfg.Scheduler.DefaultIntervalMinutes),
			ActivityLevel: schedule.ActivityMedium,
		},
		discoveryRequests: make(chan struct{}, 1),
	}
}

// RunCycle executes one full detection cycle. It never returns an
// error and never panics past its own boundary; failures are recorded
// in the statistics and the Adapting stage always runs.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	o.execMu.Lock()
	defer o.execMu.Unlock()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.log.WithField("panic", r).Error("cycle panicked, recording failure")
			o.statistics.RecordFailure(time.Now())
			o.adapt()
		}
	}()

	o.log.Info("detection cycle started")

	// Collecting + Deduplicating.
	posts := o.collect(ctx, o.cfg.Feed.MinEngagement)
	unique := feed.Dedupe(posts)
	o.statistics.RecordTweetCount(len(unique))

	// EmptyCheck: the fallback chain either produces posts to continue
	// with, or terminates the cycle itself.
	if len(unique) == 0 {
		unique = o.fallback(ctx, started)
		if unique == nil {
			o.adapt()
			return
		}
	}

	// Analyzing.
	recent := feed.FilterByAge(unique, o.cfg.Detection.MaxPostAge(), time.Now())
	found := o.analyze(ctx, recent)

	// Reporting.
	surviving := trends.FilterByAge(found, o.cfg.Detection.MaxPostAge(), time.Now())
	published := o.report(ctx, surviving)

	// Enriching.
	o.enrich(ctx, surviving)

	o.finishCycle(ctx, archive.CycleRecord{
		StartedAt: started,
		Outcome:   archive.OutcomeSuccess,
		PostCount: len(unique),
		Published: published,
		Trends:    surviving,
	})

	// Adapting always runs.
	o.adapt()
	o.log.WithFields(logrus.Fields{
		"posts":  len(unique),
		"trends": len(surviving),
	}).Info("detection cycle finished")
}

// collect fans out one feed call per active hashtag and account. A
// failing source contributes nothing; it never aborts the cycle.
func (o *Orchestrator) collect(ctx context.Context, minEngagement int) []feed.Post {
	hashtags := o.topicsMgr.Hashtags()
	accounts := o.topicsMgr.Accounts()

	var mu sync.Mutex
	var collected []feed.Post

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(collectConcurrency)

	for _, tag := range hashtags {
		g.Go(func() error {
			posts, err := o.source.SearchRecent(gctx, tag, o.cfg.Feed.SearchLimit)
			if err != nil {
				o.log.WithError(err).WithField("query", tag).Warn("search failed")
				return nil
			}
			posts = feed.FilterByEngagement(posts, minEngagement)
			mu.Lock()
			collected = append(collected, posts...)
			mu.Unlock()
			return nil
		})
	}
	for _, account := range accounts {
		g.Go(func() error {
			posts, err := o.source.RecentByAuthor(gctx, account, o.cfg.Feed.SearchLimit)
			if err != nil {
				o.log.WithError(err).WithField("account", account).Warn("timeline fetch failed")
				return nil
			}
			mu.Lock()
			collected = append(collected, posts...)
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return collected
}

// fallback runs the strict-order empty-collection chain. It returns
// posts to continue the normal pipeline with, or nil after terminating
// the cycle itself (synthetic success or failure).
func (o *Orchestrator) fallback(ctx context.Context, started time.Time) []feed.Post {
	o.log.Warn("no posts collected, entering fallback chain")

	// (1) Global-trend seeding: re-query posts for the top global terms.
	if posts := o.globalTrendPosts(ctx); len(posts) > 0 {
		o.log.WithField("posts", len(posts)).Info("fallback: global trend seed produced posts")
		return posts
	}

	// (2) Enqueue a discovery cycle (fire-and-forget via the task
	// queue, never blocking) and try the emergency broad terms with
	// relaxed engagement filters.
	o.EnqueueDiscovery()
	if posts := o.emergencySearch(ctx); len(posts) > 0 {
		o.log.WithField("posts", len(posts)).Info("fallback: emergency search produced posts")
		return posts
	}

	// (3) Synthetic generation terminates the cycle as successful.
	if o.cfg.Fallback.Enabled && o.cfg.Fallback.GenerateSyntheticTrends {
		synthetic := o.synthetic.Generate(ctx, false)
		if len(synthetic) > 0 {
			published := o.report(ctx, synthetic)
			o.finishCycle(ctx, archive.CycleRecord{
				StartedAt: started,
				Outcome:   archive.OutcomeFallback,
				Published: published,
				Trends:    synthetic,
			})
			o.log.WithField("trends", len(synthetic)).Info("fallback: cycle completed with synthetic trends")
			return nil
		}
	}

	// (4) Every strategy failed.
	o.statistics.RecordFailure(time.Now())
	o.log.Warn("fallback chain exhausted, cycle failed")
	return nil
}

func (o *Orchestrator) globalTrendPosts(ctx context.Context) []feed.Post {
	global, err := o.source.GlobalTrends(ctx)
	if err != nil {
		o.log.WithError(err).Warn("global trends unavailable")
		return nil
	}
	if len(global) > 5 {
		global = global[:5]
	}

	var posts []feed.Post
	for _, t := range global {
		found, err := o.source.SearchRecent(ctx, t.Name, o.cfg.Feed.SearchLimit)
		if err != nil {
			o.log.WithError(err).WithField("query", t.Name).Warn("global trend search failed")
			continue
		}
		posts = append(posts, feed.FilterByEngagement(found, o.cfg.Feed.MinEngagement)...)
	}
	return feed.Dedupe(posts)
}

func (o *Orchestrator) emergencySearch(ctx context.Context) []feed.Post {
	var posts []feed.Post
	for _, term := range emergencyTerms {
		// Relaxed engagement filter: keep everything that comes back.
		found, err := o.source.SearchRecent(ctx, term, o.cfg.Feed.SearchLimit)
		if err != nil {
			o.log.WithError(err).WithField("query", term).Warn("emergency search failed")
			continue
		}
		posts = append(posts, found...)
	}
	return feed.Dedupe(posts)
}

// analyze shifts the frequency snapshots (exactly once per cycle),
// ingests the posts, and runs either the AI corroboration path or the
// deterministic identifier.
func (o *Orchestrator) analyze(ctx context.Context, posts []feed.Post) []trends.Trend {
	o.freq.Shift()
	o.freq.Ingest(posts)

	if o.cfg.Detection.UseAIAnalysis {
		return o.corroborator.Analyze(ctx, posts, o.knownTerms(ctx))
	}
	return trends.Identify(
		o.freq.Current(), o.freq.Previous(),
		o.cfg.Detection.MinOccurrences, o.cfg.Detection.GrowthThresholdPercent,
	)
}

// knownTerms feeds previously seen trend terms into the oracle prompt.
// On a fresh process the in-memory history is empty, so the archive
// fills in.
func (o *Orchestrator) knownTerms(ctx context.Context) []string {
	if terms := o.history.KnownTerms(); len(terms) > 0 {
		return terms
	}
	if o.archiveStore == nil {
		return nil
	}
	terms, err := o.archiveStore.RecentTerms(ctx, 20)
	if err != nil {
		o.log.WithError(err).Debug("archive term lookup failed")
		return nil
	}
	return terms
}

// report publishes a summary when the surviving trends meet the
// configured minimum and autonomous publishing is enabled. Returns
// whether a publication happened.
func (o *Orchestrator) report(ctx context.Context, list []trends.Trend) bool {
	if len(list) == 0 {
		return false
	}
	if !o.cfg.Reporting.AutonomousPublishing || len(list) < o.cfg.Reporting.MinTrendsForPublication {
		o.log.WithField("trends", len(list)).Debug("skipping publication")
		return false
	}

	text := trends.BuildReport(list, o.cfg.Reporting.Signature, o.cfg.Reporting.CharacterLimit)
	id, err := o.publisher.Publish(ctx, text)
	if err != nil {
		o.log.WithError(err).Warn("publishing report failed")
		return false
	}

	o.statistics.RecordPublication(len(list))
	o.log.WithField("post_id", id).Info("trend report published")
	return true
}

// enrich attaches tool-server results to each trend. Failures are
// per trend, per tool; nothing here can abort the cycle.
func (o *Orchestrator) enrich(ctx context.Context, list []trends.Trend) {
	if o.hub == nil {
		return
	}
	for _, server := range o.cfg.ToolServers {
		if server.EnrichTool == "" || !o.hub.HasCapability(server.ID) {
			continue
		}
		for i := range list {
			result, err := o.hub.CallTool(ctx, server.ID, server.EnrichTool, map[string]any{
				"query": list[i].Term,
			})
			if err != nil {
				o.log.WithError(err).WithFields(logrus.Fields{
					"server": server.ID,
					"term":   list[i].Term,
				}).Debug("enrichment failed")
				continue
			}
			if list[i].Enrichment == nil {
				list[i].Enrichment = make(map[string]string)
			}
			list[i].Enrichment[server.ID] = result
		}
	}
}

// finishCycle records a successful (or fallback-successful) cycle in
// the statistics, history, archive, and the published read surface.
func (o *Orchestrator) finishCycle(ctx context.Context, rec archive.CycleRecord) {
	o.statistics.RecordSuccess(len(rec.Trends), time.Now())
	o.history.Push(rec.Trends)
	o.UpdateTrends(rec.Trends)

	if o.archiveStore != nil {
		if _, err := o.archiveStore.RecordCycle(ctx, rec); err != nil {
			o.log.WithError(err).Error("archiving cycle failed")
		}
	}
}

// adapt always runs, success or failure: it recomputes the cadence and
// replaces the running task when the expression changed. With auto-start
// disabled the chosen cadence is recorded without rescheduling.
func (o *Orchestrator) adapt() {
	snapshot := o.statistics.Snapshot()
	expr, level := o.policy.Recompute(snapshot)

	o.mu.Lock()
	changed := expr != o.scheduleState.CurrentCron
	o.scheduleState = ScheduleState{CurrentCron: expr, ActivityLevel: level}
	o.mu.Unlock()

	if !changed {
		return
	}

	o.log.WithFields(logrus.Fields{
		"cron":     expr,
		"activity": level,
	}).Info("cadence changed")

	if o.cfg.Scheduler.AutoStart && o.runner != nil {
		if err := o.runner.Reschedule(TaskTrendDetection, expr); err != nil {
			o.log.WithError(err).Error("rescheduling detection task failed")
		}
	}

	if o.runner != nil {
		if next := o.runner.Next(TaskTrendDetection); !next.IsZero() {
			o.statistics.SetNextPostTime(next)
		}
	}
}

// EnqueueDiscovery submits a discovery request to the task queue.
// Capacity one: a pending request absorbs further submissions, which
// keeps at most one discovery in flight per firing of the discovery
// task.
func (o *Orchestrator) EnqueueDiscovery() {
	select {
	case o.discoveryRequests <- struct{}{}:
	default:
	}
}

// RunDiscovery is the topic-discovery task body: it runs when a request
// is pending or the refresh interval elapsed.
func (o *Orchestrator) RunDiscovery(ctx context.Context) {
	o.execMu.Lock()
	defer o.execMu.Unlock()

	requested := false
	select {
	case <-o.discoveryRequests:
		requested = true
	default:
	}

	if !o.cfg.Discovery.Enabled {
		return
	}
	if !requested && !o.topicsMgr.NeedsRefresh() {
		return
	}

	recent := trends.Terms(o.CurrentTrends())
	if o.topicsMgr.DiscoverNewTopics(ctx, recent) {
		o.log.Info("topic discovery added new sources")
	}
}

// UpdateTrends replaces the latest snapshot served read-only to the
// MCP layer.
func (o *Orchestrator) UpdateTrends(list []trends.Trend) {
	o.mu.Lock()
	o.current = append([]trends.Trend(nil), list...)
	o.mu.Unlock()
}

// CurrentTrends returns the latest emerging-trend snapshot.
func (o *Orchestrator) CurrentTrends() []trends.Trend {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]trends.Trend(nil), o.current...)
}

// Statistics returns a copy of the cycle statistics.
func (o *Orchestrator) Statistics() stats.CycleStatistics {
	return o.statistics.Snapshot()
}

// Schedule returns the active cadence state.
func (o *Orchestrator) Schedule() ScheduleState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scheduleState
}

// TopicManager exposes the topic manager to the MCP layer.
func (o *Orchestrator) TopicManager() *topics.Manager {
	return o.topicsMgr
}
