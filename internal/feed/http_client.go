package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HTTPClient implements Source and Publisher against an X-style v2 REST
// API using bearer-token auth. It is deliberately thin: auth/session
// handling beyond the bearer header is out of scope.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// userIDs caches username -> user id lookups for the timeline
	// endpoint, which is keyed by id rather than handle. Guarded by
	// idMu: account timelines are fetched concurrently.
	idMu    sync.Mutex
	userIDs map[string]string
}

// NewHTTPClient creates a feed client. baseURL has no trailing slash.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		userIDs:    make(map[string]string),
	}
}

type apiPost struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	AuthorID      string `json:"author_id"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
	} `json:"public_metrics"`
}

type searchResponse struct {
	Data []apiPost `json:"data"`
}

type userResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type trendsResponse struct {
	Data []struct {
		TrendName  string `json:"trend_name"`
		TweetCount int    `json:"tweet_count"`
	} `json:"data"`
}

// Verify checks that the configured credentials can reach the API.
// This is the only check whose failure should stop the process: no
// cycle can ever succeed without a working feed source.
func (c *HTTPClient) Verify(ctx context.Context) error {
	var resp userResponse
	if err := c.get(ctx, "/2/users/me", nil, &resp); err != nil {
		return fmt.Errorf("verifying feed credentials: %w", err)
	}
	return nil
}

// SearchRecent returns recent posts matching the query.
func (c *HTTPClient) SearchRecent(ctx context.Context, query string, limit int) ([]Post, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", fmt.Sprintf("%d", clampLimit(limit)))
	params.Set("tweet.fields", "created_at,public_metrics,author_id")

	var resp searchResponse
	if err := c.get(ctx, "/2/tweets/search/recent", params, &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return convertPosts(resp.Data), nil
}

// RecentByAuthor returns the account's most recent posts.
func (c *HTTPClient) RecentByAuthor(ctx context.Context, account string, limit int) ([]Post, error) {
	id, err := c.userID(ctx, account)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("max_results", fmt.Sprintf("%d", clampLimit(limit)))
	params.Set("tweet.fields", "created_at,public_metrics")

	var resp searchResponse
	if err := c.get(ctx, "/2/users/"+id+"/tweets", params, &resp); err != nil {
		return nil, fmt.Errorf("fetching timeline for %s: %w", account, err)
	}
	posts := convertPosts(resp.Data)
	for i := range posts {
		posts[i].Author = account
	}
	return posts, nil
}

// GlobalTrends returns the network's worldwide trending terms.
func (c *HTTPClient) GlobalTrends(ctx context.Context) ([]GlobalTrend, error) {
	var resp trendsResponse
	if err := c.get(ctx, "/2/trends/by/woeid/1", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching global trends: %w", err)
	}
	trends := make([]GlobalTrend, 0, len(resp.Data))
	for _, t := range resp.Data {
		trends = append(trends, GlobalTrend{Name: t.TrendName, Volume: t.TweetCount})
	}
	return trends, nil
}

// Publish posts text and returns the created post id.
func (c *HTTPClient) Publish(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("encoding post body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publishing post: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusCreated && httpResp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return "", fmt.Errorf("publish returned %d: %s", httpResp.StatusCode, snippet)
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding publish response: %w", err)
	}
	return created.Data.ID, nil
}

func (c *HTTPClient) userID(ctx context.Context, account string) (string, error) {
	account = strings.TrimPrefix(account, "@")

	c.idMu.Lock()
	id, ok := c.userIDs[account]
	c.idMu.Unlock()
	if ok {
		return id, nil
	}

	var resp userResponse
	if err := c.get(ctx, "/2/users/by/username/"+url.PathEscape(account), nil, &resp); err != nil {
		return "", fmt.Errorf("resolving account %s: %w", account, err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("account %s not found", account)
	}

	c.idMu.Lock()
	c.userIDs[account] = resp.Data.ID
	c.idMu.Unlock()
	return resp.Data.ID, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func convertPosts(in []apiPost) []Post {
	posts := make([]Post, 0, len(in))
	for _, p := range in {
		post := Post{
			ID:   p.ID,
			Text: p.Text,
			Engagement: Engagement{
				Retweets: p.PublicMetrics.RetweetCount,
				Likes:    p.PublicMetrics.LikeCount,
			},
		}
		if ts, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			post.CreatedAt = &ts
		}
		posts = append(posts, post)
	}
	return posts
}

// clampLimit keeps max_results within the API's accepted 10..100 band.
func clampLimit(limit int) int {
	switch {
	case limit < 10:
		return 10
	case limit > 100:
		return 100
	default:
		return limit
	}
}
