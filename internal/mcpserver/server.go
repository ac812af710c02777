// Package mcpserver wires the MCP surface exposed to external
// consumers: read access to the latest emerging trends, the cycle
// archive, cycle statistics, and a narrow mutation path into the topic
// manager.
//
// This is the composition root for the protocol layer only: it creates
// no business objects, it receives them.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"trendwatch/internal/archive"
	"trendwatch/internal/stats"
	"trendwatch/internal/topics"
	"trendwatch/internal/trends"
)

// Version is set at build time via ldflags.
var Version = "dev"

// TrendReader is the read surface the orchestrator exposes to the
// protocol layer.
type TrendReader interface {
	CurrentTrends() []trends.Trend
	Statistics() stats.CycleStatistics
}

// CycleArchive is the slice of the archive the history tool needs.
type CycleArchive interface {
	RecentCycles(ctx context.Context, n int) ([]archive.CycleRecord, error)
}

// Enricher is the slice of the tool hub the enrich tool needs.
type Enricher interface {
	HasCapability(id string) bool
	CallTool(ctx context.Context, serverID, tool string, args map[string]any) (string, error)
}

// Deps carries everything the MCP surface serves.
type Deps struct {
	Reader    TrendReader
	Archive   CycleArchive
	Topics    *topics.Manager
	Enricher  Enricher
	EnrichVia []EnrichRoute
}

// EnrichRoute names a connected tool server and the tool to call on it.
type EnrichRoute struct {
	ServerID string
	Tool     string
}

// New creates the MCP server with all tools and resources registered.
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"trendwatch",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	currentTool := NewCurrentTrendsTool(deps.Reader)
	s.AddTool(currentTool.Definition(), currentTool.Handle)

	historyTool := NewTrendHistoryTool(deps.Archive)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	statsTool := NewCycleStatsTool(deps.Reader)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	enrichTool := NewEnrichTool(deps.Enricher, deps.EnrichVia)
	s.AddTool(enrichTool.Definition(), enrichTool.Handle)

	listTool := NewTopicsListTool(deps.Topics)
	s.AddTool(listTool.Definition(), listTool.Handle)

	addTool := NewTopicsAddTool(deps.Topics)
	s.AddTool(addTool.Definition(), addTool.Handle)

	registerResources(s, deps.Reader)

	return s
}

const instructions = `trendwatch monitors a social network for emerging ` +
	`micro-trends. Use trends_current for the latest ranked trend list, ` +
	`trends_history for archived cycles, cycle_stats for collection health, ` +
	`trend_enrich to pull external context for a term, and topics_list / ` +
	`topics_add to inspect or extend the monitored source set. Trends with ` +
	`is_synthetic=true were projected without real post data.`
