package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/foreman/pkg/adapters/search"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavily_Search(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"answer":"Go is fast.","results":[
			{"title":"Go","url":"https://go.dev","content":"The Go language"},
			{"title":"Blank","url":"https://x","content":"   "},
			{"title":"Blog","url":"","content":"Go blog post"}]}`)
	}))
	defer srv.Close()

	s, err := search.NewTavily("tvly-key", search.WithBaseURL(srv.URL), search.WithMaxResults(3))
	require.NoError(t, err)

	facts, err := s.Search(context.Background(), "what is go")
	require.NoError(t, err)

	assert.Equal(t, []domain.Fact{
		{Source: "tavily:answer", Snippet: "Go is fast."},
		{Source: "https://go.dev", Snippet: "The Go language"},
		{Source: "Blog", Snippet: "Go blog post"},
	}, facts)
	assert.Equal(t, "what is go", got["query"])
	assert.EqualValues(t, 3, got["max_results"])
	assert.Equal(t, "advanced", got["search_depth"])
}

func TestTavily_Errors(t *testing.T) {
	_, err := search.NewTavily("")
	assert.ErrorIs(t, err, search.ErrMissingAPIKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := search.NewTavily("bad", search.WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "q")
	assert.ErrorContains(t, err, "401")
}

func TestSearxNG_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"query":"golang","results":[
			{"title":"a","url":"https://a","content":"first"},
			{"title":"b","url":"https://b","content":"second"},
			{"title":"c","url":"https://c","content":"third"}]}`)
	}))
	defer srv.Close()

	s, err := search.NewSearxNG(srv.URL+"/", search.WithMaxResults(2), search.WithLanguage("en"))
	require.NoError(t, err)

	facts, err := s.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "https://a", facts[0].Source)
	assert.Equal(t, "second", facts[1].Snippet)
}

func TestSearxNG_Errors(t *testing.T) {
	_, err := search.NewSearxNG("")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s, err := search.NewSearxNG(srv.URL)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "q")
	assert.ErrorContains(t, err, "429")
}
