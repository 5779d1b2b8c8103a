package offline

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/aretw0/foreman/pkg/domain"
)

// DefaultCorpus is a small built-in knowledge base used by the demo mode.
var DefaultCorpus = []domain.Fact{
	{Source: "https://go.dev/doc/effective_go", Snippet: "Go encourages sharing memory by communicating over channels rather than communicating by sharing memory."},
	{Source: "https://go.dev/blog/context", Snippet: "The context package carries deadlines, cancellation signals and request-scoped values across API boundaries."},
	{Source: "https://en.wikipedia.org/wiki/Multi-agent_system", Snippet: "A multi-agent system is composed of multiple interacting intelligent agents that cooperate to solve problems beyond the capability of a single agent."},
	{Source: "https://en.wikipedia.org/wiki/Fusion_power", Snippet: "Fusion power research aims to produce electricity from nuclear fusion; tokamaks and laser inertial confinement are the leading approaches."},
	{Source: "https://en.wikipedia.org/wiki/Large_language_model", Snippet: "Large language models are trained on large text corpora and can be prompted to classify, summarize and generate text."},
	{Source: "https://en.wikipedia.org/wiki/Web_search_engine", Snippet: "A web search engine returns ranked results for a query, typically as titles, URLs and short content snippets."},
	{Source: "https://en.wikipedia.org/wiki/Renewable_energy", Snippet: "Solar and wind are the fastest growing sources of renewable electricity worldwide."},
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "about": true, "for": true, "in": true,
	"is": true, "of": true, "on": true, "the": true, "to": true, "what": true, "who": true,
	"how": true, "me": true, "tell": true, "with": true, "write": true, "latest": true, "recent": true,
}

// Searcher implements ports.Searcher over an in-memory corpus.
type Searcher struct {
	corpus     []domain.Fact
	maxResults int
}

// SearcherOption configures the Searcher.
type SearcherOption func(*Searcher)

// WithCorpus replaces the searchable documents.
func WithCorpus(facts ...domain.Fact) SearcherOption {
	return func(s *Searcher) {
		s.corpus = facts
	}
}

// WithMaxResults caps the number of returned facts.
func WithMaxResults(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// NewSearcher creates a searcher over DefaultCorpus.
func NewSearcher(opts ...SearcherOption) *Searcher {
	s := &Searcher{corpus: DefaultCorpus, maxResults: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search ranks documents by the number of query terms they contain.
// Documents with no shared term are not returned.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := tokenize(query)
	type hit struct {
		fact  domain.Fact
		score int
		order int
	}
	var hits []hit
	for i, doc := range s.corpus {
		words := make(map[string]bool)
		for _, w := range tokenize(doc.Snippet) {
			words[w] = true
		}
		score := 0
		for _, t := range terms {
			if words[t] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{fact: doc, score: score, order: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > s.maxResults {
		hits = hits[:s.maxResults]
	}

	out := make([]domain.Fact, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.fact)
	}
	return out, nil
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}
