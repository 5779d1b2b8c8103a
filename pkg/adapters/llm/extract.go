package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

const extractSystem = "You are a research assistant. Extract and list the most important facts from the search results. Be concise and factual. List 3 to 5 key facts, one per line."

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// SynthesisSource marks facts condensed by the model.
const SynthesisSource = "synthesis"

// ExtractingSearcher condenses raw search results into a few key facts.
// When extraction fails or yields nothing the raw results are returned.
type ExtractingSearcher struct {
	searcher  ports.Searcher
	completer Completer
	logger    *slog.Logger
}

// NewExtractingSearcher wraps searcher with model-based fact extraction.
func NewExtractingSearcher(searcher ports.Searcher, c Completer, logger *slog.Logger) *ExtractingSearcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ExtractingSearcher{searcher: searcher, completer: c, logger: logger}
}

func (e *ExtractingSearcher) Search(ctx context.Context, query string) ([]domain.Fact, error) {
	raw, err := e.searcher.Search(ctx, query)
	if err != nil || len(raw) == 0 {
		return raw, err
	}

	resp, err := e.completer.Complete(ctx, Request{
		System:      extractSystem,
		Prompt:      fmt.Sprintf("Search query: %s\n\nSearch results:\n%s\n\nExtract key facts:", query, FormatFacts(raw)),
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		e.logger.Warn("fact extraction failed, using raw results", "err", err)
		return raw, nil
	}

	facts := ParseFactLines(resp.Text, SynthesisSource)
	if len(facts) == 0 {
		return raw, nil
	}
	return facts, nil
}

// ParseFactLines splits model output into facts, skipping headings and list markers.
func ParseFactLines(text, source string) []domain.Fact {
	var out []domain.Fact
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, domain.Fact{Source: source, Snippet: line})
	}
	return out
}
