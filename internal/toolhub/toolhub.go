// Package toolhub manages connections to external MCP tool servers used
// to enrich detected trends (a search-like tool, a weather-like tool,
// whatever is configured). Connections are optional: the orchestrator
// checks HasCapability before calling and treats any failure as a
// per-trend, per-tool soft miss.
package toolhub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"trendwatch/internal/config"
)

// Hub holds the connected tool servers keyed by configured id.
type Hub struct {
	mu      sync.RWMutex
	servers map[string]*connection
	log     *logrus.Entry
}

type connection struct {
	client *client.Client
	tools  []mcp.Tool
}

// New creates an empty hub.
func New(log *logrus.Logger) *Hub {
	return &Hub{
		servers: make(map[string]*connection),
		log:     log.WithField("component", "toolhub"),
	}
}

// ConnectAll connects to every configured server. Individual failures
// are logged and skipped; a missing enrichment source never blocks
// startup.
func (h *Hub) ConnectAll(ctx context.Context, configs []config.ToolServerConfig) {
	for _, cfg := range configs {
		if err := h.connect(ctx, cfg); err != nil {
			h.log.WithError(err).WithField("server", cfg.ID).Warn("tool server connection failed")
		}
	}
}

func (h *Hub) connect(ctx context.Context, cfg config.ToolServerConfig) error {
	var (
		c   *client.Client
		err error
	)
	switch cfg.Protocol {
	case "stdio":
		c, err = client.NewStdioMCPClient(cfg.Command, nil, cfg.Args...)
		if err != nil {
			return fmt.Errorf("starting stdio client: %w", err)
		}
	case "http":
		c, err = client.NewStreamableHttpClient(cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("creating http client: %w", err)
		}
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("starting http client: %w", err)
		}
	default:
		return fmt.Errorf("unknown tool server protocol %q", cfg.Protocol)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "trendwatch", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("initializing %s: %w", cfg.ID, err)
	}

	toolsResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return fmt.Errorf("listing tools on %s: %w", cfg.ID, err)
	}

	h.mu.Lock()
	h.servers[cfg.ID] = &connection{client: c, tools: toolsResp.Tools}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"server": cfg.ID,
		"tools":  len(toolsResp.Tools),
	}).Info("tool server connected")
	return nil
}

// HasCapability reports whether a server with the given id is connected.
func (h *Hub) HasCapability(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.servers[id]
	return ok
}

// Tools lists the tool names discovered on a connected server.
func (h *Hub) Tools(id string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.servers[id]
	if !ok {
		return nil
	}
	names := make([]string, len(conn.tools))
	for i, t := range conn.tools {
		names[i] = t.Name
	}
	return names
}

// CallTool invokes a tool on a connected server and returns the
// concatenated text content of the result.
func (h *Hub) CallTool(ctx context.Context, serverID, tool string, args map[string]any) (string, error) {
	h.mu.RLock()
	conn, ok := h.servers[serverID]
	h.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("tool server %s not connected", serverID)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	res, err := conn.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling %s on %s: %w", tool, serverID, err)
	}
	if res.IsError {
		return "", fmt.Errorf("tool %s on %s reported an error", tool, serverID)
	}

	var parts []string
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Close disconnects every server.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.servers {
		if err := conn.client.Close(); err != nil {
			h.log.WithError(err).WithField("server", id).Debug("closing tool server")
		}
		delete(h.servers, id)
	}
}
