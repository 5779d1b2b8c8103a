package llm

import (
	"context"
	"errors"
	"net/http"
)

// ErrEmptyCompletion is returned when a backend answers without any text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Response carries the completion text and token usage.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Completer is a chat model able to answer a single prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (Response, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

const defaultMaxTokens = 4096

type options struct {
	model      string
	baseURL    string
	maxTokens  int
	maxRetries int
	httpClient *http.Client
}

// Option configures a backend.
type Option func(*options)

// WithModel selects the model name.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the backend to a compatible endpoint or proxy.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithMaxRetries sets how many times transient failures are retried.
// Only the Anthropic backend retries on its own.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(defaultModel string, opts []Option) options {
	o := options{model: defaultModel, maxTokens: defaultMaxTokens, maxRetries: 2}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func maxTokens(req Request, o options) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return o.maxTokens
}
