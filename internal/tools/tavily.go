package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	maxAttempts    = 5
)

// Tavily calls the Tavily search API and returns structured records.
type Tavily struct {
	APIKey string
	// Depth controls Tavily's search_depth parameter (basic or advanced).
	Depth      string
	MaxResults int
	// BaseURL overrides the API endpoint; empty means the public API.
	BaseURL string

	client  *http.Client
	policy  *bluemonday.Policy
	backoff time.Duration
}

func NewTavily(apiKey, depth string, maxResults int) *Tavily {
	return NewTavilyWithClient(apiKey, depth, maxResults, &http.Client{Timeout: 20 * time.Second})
}

// NewTavilyWithClient is useful for overriding the default timeout.
func NewTavilyWithClient(apiKey, depth string, maxResults int, client *http.Client) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Tavily{
		APIKey:     apiKey,
		Depth:      depth,
		MaxResults: maxResults,
		client:     client,
		policy:     bluemonday.StrictPolicy(),
		backoff:    time.Second,
	}
}

func (t *Tavily) Name() string {
	return "tavily"
}

func (t *Tavily) Search(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return Result{}, errors.New("tavily: API key is missing")
	}

	payload, err := json.Marshal(map[string]any{
		"query":        query,
		"api_key":      t.APIKey,
		"search_depth": t.Depth,
		"max_results":  t.MaxResults,
	})
	if err != nil {
		return Result{}, err
	}

	endpoint := t.BaseURL
	if endpoint == "" {
		endpoint = tavilyEndpoint
	}

	var resp *http.Response
	delay := t.backoff
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return Result{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
		if err != nil {
			return Result{}, fmt.Errorf("tavily request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()
		if attempt == maxAttempts {
			return Result{}, fmt.Errorf("tavily: rate limited after %d attempts", attempt)
		}

		// Back off on 429, doubling up to 30s.
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("tavily: decode response: %w", err)
	}

	records := make([]Record, 0, len(body.Results))
	for _, r := range body.Results {
		records = append(records, Record{
			Title:   r.Title,
			URL:     r.URL,
			Content: t.clean(r.Content),
			Score:   r.Score,
		})
		if len(records) >= t.MaxResults {
			break
		}
	}
	return Result{Records: records}, nil
}

// clean strips markup from snippets. bluemonday escapes entities, which the
// model does not need.
func (t *Tavily) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(s)))
}
