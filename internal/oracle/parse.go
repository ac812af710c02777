package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TrendSuggestion is one entry in the oracle's structured trend output.
// Occurrences is optional; when absent the caller cross-references the
// deterministic frequency counts instead of trusting the model.
type TrendSuggestion struct {
	Term        string  `json:"term"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Context     string  `json:"context"`
	Sentiment   string  `json:"sentiment"`
	Occurrences int     `json:"occurrences,omitempty"`
}

// TopicSuggestions is the oracle's structured output for topic
// discovery: new hashtags and accounts worth monitoring.
type TopicSuggestions struct {
	Hashtags []string `json:"hashtags"`
	Accounts []string `json:"accounts"`
}

// ParseTrendSuggestions decodes the oracle's trend output. Tolerates a
// bare array, a {"trends": [...]} wrapper, and markdown code fences.
func ParseTrendSuggestions(raw string) ([]TrendSuggestion, error) {
	body := stripFences(raw)

	var suggestions []TrendSuggestion
	if err := json.Unmarshal([]byte(body), &suggestions); err == nil {
		return suggestions, nil
	}

	var wrapped struct {
		Trends []TrendSuggestion `json:"trends"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return nil, fmt.Errorf("parsing trend suggestions: %w", err)
	}
	if wrapped.Trends == nil {
		return nil, fmt.Errorf("parsing trend suggestions: no trends field")
	}
	return wrapped.Trends, nil
}

// ParseTopicSuggestions decodes the oracle's topic discovery output.
func ParseTopicSuggestions(raw string) (TopicSuggestions, error) {
	body := stripFences(raw)

	var suggestions TopicSuggestions
	if err := json.Unmarshal([]byte(body), &suggestions); err != nil {
		return TopicSuggestions{}, fmt.Errorf("parsing topic suggestions: %w", err)
	}
	return suggestions, nil
}

// stripFences removes a surrounding markdown code fence if present.
// Models add them even when asked for raw JSON.
func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
