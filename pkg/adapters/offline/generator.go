package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

// Generator implements ports.Generator by rendering a Markdown digest.
type Generator struct{}

// NewGenerator creates a template generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the query as a heading followed by the facts and their sources.
func (g *Generator) Generate(ctx context.Context, query string, facts []domain.Fact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(query))
	if len(facts) == 0 {
		b.WriteString("No research was needed for this request. This draft was composed without external sources.\n")
		return b.String(), nil
	}

	b.WriteString("## Key findings\n\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s\n", f.Snippet)
	}
	b.WriteString("\n## Sources\n\n")
	for i, f := range facts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.Source)
	}
	return b.String(), nil
}
