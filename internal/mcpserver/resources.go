package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources adds the read-only resource endpoints. Resources
// use URI-based addressing (trendwatch://...) following MCP
// conventions.
func registerResources(s *server.MCPServer, reader TrendReader) {
	current := mcp.NewResource(
		"trendwatch://trends/current",
		"Current Emerging Trends",
		mcp.WithResourceDescription("The latest ranked emerging-trend snapshot as JSON"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(current, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.MarshalIndent(reader.CurrentTrends(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling trends: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	statistics := mcp.NewResource(
		"trendwatch://stats/cycles",
		"Detection Cycle Statistics",
		mcp.WithResourceDescription("Rolling detection-cycle statistics as JSON"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(statistics, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.MarshalIndent(reader.Statistics(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling statistics: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
