package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// EnrichTool handles the trend_enrich MCP tool. It fans a term out to
// the connected downstream tool servers and collects whatever context
// each returns.
type EnrichTool struct {
	enricher Enricher
	routes   []EnrichRoute
}

// NewEnrichTool creates the tool over the hub and the configured
// enrichment routes.
func NewEnrichTool(enricher Enricher, routes []EnrichRoute) *EnrichTool {
	return &EnrichTool{enricher: enricher, routes: routes}
}

// Definition returns the MCP tool definition for registration.
func (t *EnrichTool) Definition() mcp.Tool {
	return mcp.NewTool("trend_enrich",
		mcp.WithDescription(
			"Query the connected downstream tool servers for external "+
				"context about a term. Returns one entry per responding "+
				"server; servers that are down are skipped.",
		),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("The trend term to enrich, e.g. \"#golang\"."),
		),
	)
}

// Handle processes the trend_enrich tool call.
func (t *EnrichTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := req.RequireString("term")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if t.enricher == nil || len(t.routes) == 0 {
		return mcp.NewToolResultText("No enrichment servers configured."), nil
	}

	results := make(map[string]string)
	for _, route := range t.routes {
		if !t.enricher.HasCapability(route.ServerID) {
			continue
		}
		out, err := t.enricher.CallTool(ctx, route.ServerID, route.Tool, map[string]any{
			"query": term,
		})
		if err != nil {
			results[route.ServerID] = fmt.Sprintf("error: %s", err)
			continue
		}
		results[route.ServerID] = out
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No enrichment servers reachable."), nil
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding enrichment: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
