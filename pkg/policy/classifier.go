package policy

import (
	"strings"
	"unicode"

	"github.com/aretw0/foreman/pkg/domain"
)

var researchCues = []string{
	"research", "find", "search", "look up", "latest", "recent", "current", "today",
	"news", "who ", "what ", "when ", "where ", "which ", "how many", "how much",
	"statistics", "compare", "trend", "price", "released", "announced",
}

var writingCues = []string{
	"write", "draft", "compose", "poem", "story", "essay", "letter", "email",
	"rewrite", "rephrase", "summarize this", "haiku", "slogan", "outline",
}

// Classify infers a task kind from the wording of the query.
//
// Questions and cues about current or factual information make it a research
// task, including requests that mix research and writing. Pure composition
// requests are writing tasks. Anything without a cue stays unknown.
func Classify(query string) domain.TaskKind {
	q := " " + strings.ToLower(strings.TrimSpace(query)) + " "
	if strings.TrimSpace(q) == "" {
		return domain.TaskUnknown
	}

	research := strings.HasSuffix(strings.TrimRightFunc(q, unicode.IsSpace), "?") || containsAny(q, researchCues)
	writing := containsAny(q, writingCues)

	switch {
	case research:
		return domain.TaskResearch
	case writing:
		return domain.TaskWriting
	}
	return domain.TaskUnknown
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}
