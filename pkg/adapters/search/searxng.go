package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

// SearxNG queries a self-hosted SearxNG instance.
type SearxNG struct {
	config
}

// NewSearxNG creates a SearxNG searcher for the instance at baseURL.
func NewSearxNG(baseURL string, opts ...Option) (*SearxNG, error) {
	if baseURL == "" {
		return nil, errors.New("search: SearxNG base URL is required")
	}
	c := newConfig(baseURL, opts)
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return &SearxNG{config: c}, nil
}

type searxngResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

func (s *SearxNG) Search(ctx context.Context, query string) ([]domain.Fact, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("safesearch", "0")
	values.Set("categories", "general")
	if s.language != "" {
		values.Set("language", s.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng: non-200 response: %d", resp.StatusCode)
	}

	var out searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("searxng: decode response: %w", err)
	}
	return toFacts(out.Results, s.maxResults), nil
}
