package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CurrentTrendsTool handles the trends_current MCP tool: the latest
// ranked emerging-trend snapshot.
type CurrentTrendsTool struct {
	reader TrendReader
}

// NewCurrentTrendsTool creates the tool over the orchestrator's read
// surface.
func NewCurrentTrendsTool(reader TrendReader) *CurrentTrendsTool {
	return &CurrentTrendsTool{reader: reader}
}

// Definition returns the MCP tool definition for registration.
func (t *CurrentTrendsTool) Definition() mcp.Tool {
	return mcp.NewTool("trends_current",
		mcp.WithDescription(
			"Return the latest detected emerging trends, ranked by growth "+
				"rate descending. Trends marked is_synthetic were projected "+
				"without real collected posts.",
		),
	)
}

// Handle processes the trends_current tool call.
func (t *CurrentTrendsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := t.reader.CurrentTrends()
	if len(list) == 0 {
		return mcp.NewToolResultText("No trends detected yet. The next detection cycle may change that."), nil
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding trends: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// TrendHistoryTool handles the trends_history MCP tool, backed by the
// SQLite cycle archive.
type TrendHistoryTool struct {
	archive CycleArchive
}

// NewTrendHistoryTool creates the tool over the cycle archive.
func NewTrendHistoryTool(a CycleArchive) *TrendHistoryTool {
	return &TrendHistoryTool{archive: a}
}

// Definition returns the MCP tool definition for registration.
func (t *TrendHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("trends_history",
		mcp.WithDescription(
			"Return archived detection cycles with their trends, newest "+
				"first. Each cycle records its outcome (success, fallback, "+
				"failed) and post count.",
		),
		mcp.WithNumber("cycles",
			mcp.Description("How many recent cycles to return (default 5, max 50)."),
		),
	)
}

// Handle processes the trends_history tool call.
func (t *TrendHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.archive == nil {
		return mcp.NewToolResultError("No archive configured."), nil
	}

	n := req.GetInt("cycles", 5)
	if n < 1 {
		n = 1
	}
	if n > 50 {
		n = 50
	}

	records, err := t.archive.RecentCycles(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("loading cycle history: %w", err)
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No cycles archived yet."), nil
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding cycle history: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// CycleStatsTool handles the cycle_stats MCP tool.
type CycleStatsTool struct {
	reader TrendReader
}

// NewCycleStatsTool creates the tool over the orchestrator's read
// surface.
func NewCycleStatsTool(reader TrendReader) *CycleStatsTool {
	return &CycleStatsTool{reader: reader}
}

// Definition returns the MCP tool definition for registration.
func (t *CycleStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("cycle_stats",
		mcp.WithDescription(
			"Return rolling detection-cycle statistics: totals, success/"+
				"failure counts, the sliding tweet-count window and its "+
				"average, and the next scheduled run.",
		),
	)
}

// Handle processes the cycle_stats tool call.
func (t *CycleStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshot := t.reader.Statistics()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding statistics: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
