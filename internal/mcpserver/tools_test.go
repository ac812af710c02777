package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"trendwatch/internal/archive"
	"trendwatch/internal/logging"
	"trendwatch/internal/oracle"
	"trendwatch/internal/stats"
	"trendwatch/internal/topics"
	"trendwatch/internal/trends"
)

// --- Fakes ---

type fakeReader struct {
	trends []trends.Trend
	stats  stats.CycleStatistics
}

func (f *fakeReader) CurrentTrends() []trends.Trend     { return f.trends }
func (f *fakeReader) Statistics() stats.CycleStatistics { return f.stats }

type fakeArchive struct {
	records []archive.CycleRecord
	err     error
}

func (f *fakeArchive) RecentCycles(_ context.Context, n int) ([]archive.CycleRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n < len(f.records) {
		return f.records[:n], nil
	}
	return f.records, nil
}

type fakeEnricher struct {
	capable map[string]bool
	results map[string]string
	err     error
}

func (f *fakeEnricher) HasCapability(id string) bool { return f.capable[id] }

func (f *fakeEnricher) CallTool(_ context.Context, serverID, tool string, args map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.results[serverID], nil
}

// --- Helpers ---

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- trends_current ---

func TestCurrentTrendsTool_ReturnsRankedJSON(t *testing.T) {
	reader := &fakeReader{trends: []trends.Trend{
		{Term: "#first", Count: 10, GrowthRate: 200},
		{Term: "#second", Count: 4, GrowthRate: 80, IsSynthetic: true},
	}}
	tool := NewCurrentTrendsTool(reader)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("got error result: %s", getResultText(result))
	}

	var decoded []trends.Trend
	if err := json.Unmarshal([]byte(getResultText(result)), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Term != "#first" {
		t.Errorf("decoded = %v, want both trends with #first leading", trends.Terms(decoded))
	}
	if !decoded[1].IsSynthetic {
		t.Error("is_synthetic flag missing from the wire format")
	}
}

func TestCurrentTrendsTool_EmptyState(t *testing.T) {
	tool := NewCurrentTrendsTool(&fakeReader{})

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "No trends detected yet") {
		t.Errorf("empty-state text = %q", getResultText(result))
	}
}

// --- trends_history ---

func TestTrendHistoryTool_DefaultsToFiveCycles(t *testing.T) {
	var records []archive.CycleRecord
	for i := 0; i < 8; i++ {
		records = append(records, archive.CycleRecord{ID: string(rune('a' + i)), Outcome: archive.OutcomeSuccess})
	}
	tool := NewTrendHistoryTool(&fakeArchive{records: records})

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	var decoded []archive.CycleRecord
	if err := json.Unmarshal([]byte(getResultText(result)), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(decoded) != 5 {
		t.Errorf("got %d cycles, want the default 5", len(decoded))
	}
}

func TestTrendHistoryTool_ClampsRequestedCycles(t *testing.T) {
	fa := &fakeArchive{}
	tool := NewTrendHistoryTool(fa)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"cycles": float64(500)}

	if _, err := tool.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	// An empty archive still answers cleanly.
}

func TestTrendHistoryTool_NilArchive(t *testing.T) {
	tool := NewTrendHistoryTool(nil)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("nil archive did not produce an error result")
	}
}

func TestTrendHistoryTool_ArchiveErrorPropagates(t *testing.T) {
	tool := NewTrendHistoryTool(&fakeArchive{err: errors.New("disk gone")})

	if _, err := tool.Handle(context.Background(), mcp.CallToolRequest{}); err == nil {
		t.Error("archive error swallowed, want it returned")
	}
}

// --- cycle_stats ---

func TestCycleStatsTool(t *testing.T) {
	reader := &fakeReader{stats: stats.CycleStatistics{
		SuccessfulCycles:      7,
		FailedCycles:          1,
		CycleTweetCounts:      []int{10, 20},
		AverageTweetsPerCycle: 15,
		LastCycleTime:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}
	tool := NewCycleStatsTool(reader)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	var decoded stats.CycleStatistics
	if err := json.Unmarshal([]byte(getResultText(result)), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if decoded.SuccessfulCycles != 7 || decoded.AverageTweetsPerCycle != 15 {
		t.Errorf("decoded = %+v, want the reader's statistics", decoded)
	}
}

// --- trend_enrich ---

func TestEnrichTool_CollectsPerServerResults(t *testing.T) {
	enricher := &fakeEnricher{
		capable: map[string]bool{"news": true, "down": false},
		results: map[string]string{"news": "three articles found"},
	}
	tool := NewEnrichTool(enricher, []EnrichRoute{
		{ServerID: "news", Tool: "search"},
		{ServerID: "down", Tool: "search"},
	})

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"term": "#golang"}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(getResultText(result)), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if decoded["news"] != "three articles found" {
		t.Errorf("decoded = %v, want the news server's result", decoded)
	}
	if _, ok := decoded["down"]; ok {
		t.Error("unreachable server appears in the results")
	}
}

func TestEnrichTool_MissingTermIsErrorResult(t *testing.T) {
	tool := NewEnrichTool(&fakeEnricher{}, []EnrichRoute{{ServerID: "x", Tool: "y"}})

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("missing required term did not produce an error result")
	}
}

func TestEnrichTool_NoRoutesConfigured(t *testing.T) {
	tool := NewEnrichTool(nil, nil)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"term": "#golang"}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "No enrichment servers configured") {
		t.Errorf("text = %q", getResultText(result))
	}
}

// --- topics tools ---

func testTopicsManager(t *testing.T) *topics.Manager {
	t.Helper()
	m, err := topics.NewManager(
		topics.NewFileStore(filepath.Join(t.TempDir(), "topics.json")),
		oracle.Disabled{},
		[]string{"#ai"}, []string{"gopher"},
		5, 3, 24, logging.Discard(),
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestTopicsListTool(t *testing.T) {
	tool := NewTopicsListTool(testTopicsManager(t))

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	var decoded struct {
		Hashtags []string `json:"hashtags"`
		Accounts []string `json:"accounts"`
	}
	if err := json.Unmarshal([]byte(getResultText(result)), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(decoded.Hashtags) != 1 || decoded.Hashtags[0] != "#ai" {
		t.Errorf("hashtags = %v, want [#ai]", decoded.Hashtags)
	}
	if len(decoded.Accounts) != 1 || decoded.Accounts[0] != "gopher" {
		t.Errorf("accounts = %v, want [gopher]", decoded.Accounts)
	}
}

func TestTopicsAddTool_AddsCanonicalized(t *testing.T) {
	manager := testTopicsManager(t)
	tool := NewTopicsAddTool(manager)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"hashtag": "GoLang",
		"account": "@NewsBot",
	}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "#golang") || !strings.Contains(text, "newsbot") {
		t.Errorf("text = %q, want both canonical forms mentioned", text)
	}

	if got := manager.Hashtags(); len(got) != 2 {
		t.Errorf("hashtags = %v, want #golang added", got)
	}
}

func TestTopicsAddTool_DuplicateReportsNothingAdded(t *testing.T) {
	tool := NewTopicsAddTool(testTopicsManager(t))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"hashtag": "#AI"}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "already monitored") {
		t.Errorf("text = %q, want the duplicate notice", getResultText(result))
	}
}

func TestTopicsAddTool_NoArgumentsIsErrorResult(t *testing.T) {
	tool := NewTopicsAddTool(testTopicsManager(t))

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("empty request did not produce an error result")
	}
}
