package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/foreman/pkg/domain"
)

// DefaultTavilyURL is the public Tavily endpoint.
const DefaultTavilyURL = "https://api.tavily.com"

// ErrMissingAPIKey is returned when a keyed provider is built without a key.
var ErrMissingAPIKey = errors.New("search: missing API key")

// Tavily searches the web through the Tavily API.
type Tavily struct {
	apiKey string
	config
}

// NewTavily creates a Tavily searcher.
func NewTavily(apiKey string, opts ...Option) (*Tavily, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Tavily{apiKey: apiKey, config: newConfig(DefaultTavilyURL, opts)}, nil
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string) ([]domain.Fact, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:         query,
		MaxResults:    t.maxResults,
		SearchDepth:   t.depth,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	facts := toFacts(out.Results, t.maxResults)
	if out.Answer != "" {
		facts = append([]domain.Fact{{Source: "tavily:answer", Snippet: out.Answer}}, facts...)
	}
	return facts, nil
}
