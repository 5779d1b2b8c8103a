package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// DefaultRedactPatterns match e-mail addresses and common API key shapes.
var DefaultRedactPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\b(sk|tvly|pk)-[A-Za-z0-9_\-]{16,}\b`,
}

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks text matching the patterns in the query, facts,
// draft and history before the state reaches the store. The caller's state is
// never modified; only the persisted copy is redacted.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, runID string, state *domain.State) error {
	c := state.Clone()
	c.Query = m.mask(c.Query)
	c.Draft = m.mask(c.Draft)
	for i := range c.Facts {
		c.Facts[i].Snippet = m.mask(c.Facts[i].Snippet)
	}
	for i := range c.History {
		c.History[i].Summary = m.mask(c.History[i].Summary)
	}
	if c.Failure != nil {
		c.Failure.Detail = m.mask(c.Failure.Detail)
	}
	return m.next.Save(ctx, runID, c)
}

func (m *redactMiddleware) mask(s string) string {
	for _, re := range m.patterns {
		s = re.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.State, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
