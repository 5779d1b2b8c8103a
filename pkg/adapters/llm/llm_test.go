package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/foreman/pkg/adapters/llm"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	text     string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind domain.TaskKind
		want     domain.Route
		wantErr  bool
	}{
		{
			name:     "plain json",
			text:     `{"task_kind":"research","next_agent":"research","reasoning":"needs data"}`,
			wantKind: domain.TaskResearch,
			want:     domain.RouteResearch,
		},
		{
			name:     "fenced json with prose",
			text:     "Sure!\n```json\n{\"task_kind\": \"writing\", \"next_agent\": \"Writing\"}\n```",
			wantKind: domain.TaskWriting,
			want:     domain.RouteWriting,
		},
		{
			name:     "end alias",
			text:     `{"task_kind":"writing","next_agent":"END"}`,
			wantKind: domain.TaskWriting,
			want:     domain.RouteDone,
		},
		{
			name:     "combined maps to research",
			text:     `{"task_kind":"combined","next_agent":"research"}`,
			wantKind: domain.TaskResearch,
			want:     domain.RouteResearch,
		},
		{
			name:     "unknown route kept for validation",
			text:     `{"task_kind":"poetry","next_agent":"editor"}`,
			wantKind: domain.TaskKind("poetry"),
			want:     domain.Route("editor"),
		},
		{name: "no json", text: "research please", wantErr: true},
		{name: "broken json", text: `{"task_kind": }`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := llm.ParseDecision(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, llm.ErrMalformedDecision)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, d.TaskKind)
			assert.Equal(t, tt.want, d.NextAgent)
		})
	}
}

func TestDecider_Decide(t *testing.T) {
	fake := &fakeCompleter{text: `{"task_kind":"research","next_agent":"writing","reasoning":"facts are in"}`}
	d := llm.NewDecider(fake)

	s := domain.NewState("r", "What is Go?")
	s.TaskKind = domain.TaskResearch
	s.Facts = []domain.Fact{{Snippet: "Go is a language"}}

	got, err := d.Decide(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteWriting, got.NextAgent)
	assert.Equal(t, "facts are in", got.Reasoning)

	require.Len(t, fake.requests, 1)
	assert.Contains(t, fake.requests[0].Prompt, "Number of facts: 1")
	assert.Contains(t, fake.requests[0].Prompt, "User query: What is Go?")
	assert.InDelta(t, 0.1, fake.requests[0].Temperature, 0.001)
}

func TestDecider_CompleterError(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := llm.NewDecider(&fakeCompleter{err: boom}).Decide(context.Background(), domain.NewState("r", "q"))
	assert.ErrorIs(t, err, boom)
}

func TestGenerator_Generate(t *testing.T) {
	fake := &fakeCompleter{text: "  A fine essay.  \n"}
	g := llm.NewGenerator(fake)

	out, err := g.Generate(context.Background(), "Write about Go", []domain.Fact{{Source: "web", Snippet: "Go has goroutines"}})
	require.NoError(t, err)
	assert.Equal(t, "A fine essay.", out)
	assert.Contains(t, fake.requests[0].Prompt, "1. Go has goroutines (source: web)")
}

func TestFormatFacts_Empty(t *testing.T) {
	assert.Equal(t, "No research facts available.", llm.FormatFacts(nil))
}

func TestExtractingSearcher(t *testing.T) {
	raw := []domain.Fact{{Source: "a", Snippet: "long result one"}, {Source: "b", Snippet: "long result two"}}
	searcher := ports.SearchFunc(func(context.Context, string) ([]domain.Fact, error) { return raw, nil })

	t.Run("condenses results", func(t *testing.T) {
		fake := &fakeCompleter{text: "## Key facts\n1. Go was released in 2009\n- 2024 saw Go 1.22\n\n"}
		facts, err := llm.NewExtractingSearcher(searcher, fake, nil).Search(context.Background(), "go")
		require.NoError(t, err)
		assert.Equal(t, []domain.Fact{
			{Source: llm.SynthesisSource, Snippet: "Go was released in 2009"},
			{Source: llm.SynthesisSource, Snippet: "2024 saw Go 1.22"},
		}, facts)
	})

	t.Run("falls back on error", func(t *testing.T) {
		facts, err := llm.NewExtractingSearcher(searcher, &fakeCompleter{err: errors.New("down")}, nil).Search(context.Background(), "go")
		require.NoError(t, err)
		assert.Equal(t, raw, facts)
	})

	t.Run("skips extraction when nothing found", func(t *testing.T) {
		empty := ports.SearchFunc(func(context.Context, string) ([]domain.Fact, error) { return nil, nil })
		fake := &fakeCompleter{text: "ignored"}
		facts, err := llm.NewExtractingSearcher(empty, fake, nil).Search(context.Background(), "go")
		require.NoError(t, err)
		assert.Empty(t, facts)
		assert.Empty(t, fake.requests)
	})
}

func TestOpenAI_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`)
	}))
	defer srv.Close()

	c := llm.NewOpenAI("test-key", llm.WithBaseURL(srv.URL+"/v1"))
	resp, err := c.Complete(context.Background(), llm.Request{System: "sys", Prompt: "hi", Temperature: 0.5})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Text)
	assert.EqualValues(t, 7, resp.InputTokens)
	assert.EqualValues(t, 2, resp.OutputTokens)
	assert.Equal(t, llm.DefaultOpenAIModel, body["model"])
	assert.Len(t, body["messages"], 2)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	_, err := llm.NewOpenAI("k", llm.WithBaseURL(srv.URL)).Complete(context.Background(), llm.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestAnthropic_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"hello "},{"type":"text","text":"there"}],
			"stop_reason":"end_turn","usage":{"input_tokens":11,"output_tokens":3}}`)
	}))
	defer srv.Close()

	c := llm.NewAnthropic("test-key", llm.WithBaseURL(srv.URL+"/"), llm.WithModel("claude-test"), llm.WithMaxRetries(0))
	resp, err := c.Complete(context.Background(), llm.Request{System: "sys", Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hello there", resp.Text)
	assert.EqualValues(t, 11, resp.InputTokens)
	assert.Equal(t, "claude-test", body["model"])
	assert.NotNil(t, body["system"])
}

func TestAnthropic_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	defer srv.Close()

	c := llm.NewAnthropic("k", llm.WithBaseURL(srv.URL+"/"), llm.WithMaxRetries(0))
	_, err := c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	assert.Error(t, err)
}
