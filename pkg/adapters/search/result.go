package search

import (
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

// Result is a single web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// toFacts keeps results with content, up to max entries.
func toFacts(results []Result, max int) []domain.Fact {
	facts := make([]domain.Fact, 0, min(len(results), max))
	for _, r := range results {
		if len(facts) == max {
			break
		}
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		source := r.URL
		if source == "" {
			source = r.Title
		}
		facts = append(facts, domain.Fact{Source: source, Snippet: content})
	}
	return facts
}
