package ports

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// Searcher retrieves evidence for a query. An empty result is not an error.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Fact, error)
}

// Generator synthesizes a draft from the query and the gathered facts.
// Facts may be empty, in which case the draft comes from general knowledge.
type Generator interface {
	Generate(ctx context.Context, query string, facts []domain.Fact) (string, error)
}

// Decider classifies the query and proposes the next route.
// The snapshot is a private copy; implementations may not retain it.
type Decider interface {
	Decide(ctx context.Context, snapshot *domain.State) (domain.Decision, error)
}

// SearchFunc adapts a function to the Searcher interface.
type SearchFunc func(ctx context.Context, query string) ([]domain.Fact, error)

func (f SearchFunc) Search(ctx context.Context, query string) ([]domain.Fact, error) {
	return f(ctx, query)
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(ctx context.Context, query string, facts []domain.Fact) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, query string, facts []domain.Fact) (string, error) {
	return f(ctx, query, facts)
}

// DecideFunc adapts a function to the Decider interface.
type DecideFunc func(ctx context.Context, snapshot *domain.State) (domain.Decision, error)

func (f DecideFunc) Decide(ctx context.Context, snapshot *domain.State) (domain.Decision, error) {
	return f(ctx, snapshot)
}
