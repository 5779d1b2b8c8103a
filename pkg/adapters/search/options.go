package search

import (
	"net/http"
	"time"
)

// DefaultMaxResults bounds the number of facts returned per search.
const DefaultMaxResults = 5

type config struct {
	baseURL    string
	maxResults int
	language   string
	depth      string
	httpClient *http.Client
}

// Option configures a search client.
type Option func(*config)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithMaxResults limits how many results are turned into facts.
func WithMaxResults(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithLanguage restricts results to a language (SearxNG only).
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithSearchDepth selects "basic" or "advanced" search (Tavily only).
func WithSearchDepth(depth string) Option {
	return func(c *config) {
		if depth != "" {
			c.depth = depth
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(clt *http.Client) Option {
	return func(c *config) { c.httpClient = clt }
}

func newConfig(baseURL string, opts []Option) config {
	c := config{
		baseURL:    baseURL,
		maxResults: DefaultMaxResults,
		depth:      "advanced",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
