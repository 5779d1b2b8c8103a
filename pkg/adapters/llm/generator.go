package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

const writerSystem = `You are an expert writer and content creator.
Synthesize the provided research facts into a well-structured, coherent piece of
writing that addresses the user's query.

Guidelines:
- Write in a clear, professional and engaging style.
- Structure the content in paragraphs, with an introduction and conclusion when appropriate.
- Base the writing on the provided facts; you may add context and connections.
- Aim for 3 to 5 paragraphs depending on the complexity of the topic.
- If no facts are available, write from general knowledge and be transparent about it.`

// Generator writes the final answer with a model.
type Generator struct {
	completer   Completer
	temperature float32
}

// NewGenerator creates a generation collaborator backed by c.
func NewGenerator(c Completer) *Generator {
	return &Generator{completer: c, temperature: 0.7}
}

// WithTemperature overrides the sampling temperature when t is positive.
func (g *Generator) WithTemperature(t float32) *Generator {
	if t > 0 {
		g.temperature = t
	}
	return g
}

func (g *Generator) Generate(ctx context.Context, query string, facts []domain.Fact) (string, error) {
	prompt := fmt.Sprintf("User query: %s\n\nResearch facts:\n%s\n\nWrite a comprehensive response that addresses the query.",
		query, FormatFacts(facts))

	resp, err := g.completer.Complete(ctx, Request{
		System:      writerSystem,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// FormatFacts renders facts as a numbered list for prompts.
func FormatFacts(facts []domain.Fact) string {
	if len(facts) == 0 {
		return "No research facts available."
	}
	var sb strings.Builder
	for i, f := range facts {
		fmt.Fprintf(&sb, "%d. %s", i+1, f.Snippet)
		if f.Source != "" {
			fmt.Fprintf(&sb, " (source: %s)", f.Source)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
