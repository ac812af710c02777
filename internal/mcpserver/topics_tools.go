package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"trendwatch/internal/topics"
)

// TopicsListTool handles the topics_list MCP tool.
type TopicsListTool struct {
	manager *topics.Manager
}

// NewTopicsListTool creates the tool over the topic manager.
func NewTopicsListTool(manager *topics.Manager) *TopicsListTool {
	return &TopicsListTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *TopicsListTool) Definition() mcp.Tool {
	return mcp.NewTool("topics_list",
		mcp.WithDescription(
			"List the monitored hashtags, accounts, and recent discovery "+
				"history.",
		),
	)
}

// Handle processes the topics_list tool call.
func (t *TopicsListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := struct {
		Hashtags []string                      `json:"hashtags"`
		Accounts []string                      `json:"accounts"`
		History  []topics.DiscoveryCycleRecord `json:"history,omitempty"`
	}{
		Hashtags: t.manager.Hashtags(),
		Accounts: t.manager.Accounts(),
		History:  t.manager.History(),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding topics: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// TopicsAddTool handles the topics_add MCP tool, the narrow mutation
// path external consumers get into the monitored set.
type TopicsAddTool struct {
	manager *topics.Manager
}

// NewTopicsAddTool creates the tool over the topic manager.
func NewTopicsAddTool(manager *topics.Manager) *TopicsAddTool {
	return &TopicsAddTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *TopicsAddTool) Definition() mcp.Tool {
	return mcp.NewTool("topics_add",
		mcp.WithDescription(
			"Add a hashtag or account to the monitored set. Hashtags are "+
				"canonicalized with a leading #, accounts without a leading @. "+
				"Adding a duplicate is a no-op.",
		),
		mcp.WithString("hashtag",
			mcp.Description("Hashtag to monitor, with or without the leading #."),
		),
		mcp.WithString("account",
			mcp.Description("Account handle to monitor, with or without the leading @."),
		),
	)
}

// Handle processes the topics_add tool call.
func (t *TopicsAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hashtag := req.GetString("hashtag", "")
	account := req.GetString("account", "")
	if hashtag == "" && account == "" {
		return mcp.NewToolResultError("Provide a hashtag or an account (or both)."), nil
	}

	var added []string
	if hashtag != "" && t.manager.AddHashtag(hashtag) {
		added = append(added, topics.CanonicalHashtag(hashtag))
	}
	if account != "" && t.manager.AddAccount(account) {
		added = append(added, topics.CanonicalAccount(account))
	}

	if len(added) == 0 {
		return mcp.NewToolResultText("Nothing added: already monitored."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Now monitoring: %s", strings.Join(added, ", "))), nil
}
