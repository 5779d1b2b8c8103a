package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/pkg/adapters/memory"
	"github.com/aretw0/foreman/pkg/adapters/offline"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, searcher ports.Searcher, opts ...foreman.Option) *foreman.Engine {
	t.Helper()
	if searcher == nil {
		searcher = ports.SearchFunc(func(context.Context, string) ([]domain.Fact, error) {
			return []domain.Fact{{Source: "s", Snippet: "a fact"}}, nil
		})
	}
	eng, err := foreman.New(searcher, offline.NewGenerator(), offline.NewDecider(), opts...)
	require.NoError(t, err)
	return eng
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)))
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestCreateRun_Sync(t *testing.T) {
	h := NewHandler(newTestEngine(t, nil, foreman.WithStore(memory.NewStore())))

	w := post(t, h, "/runs", RunRequest{Query: "What is Go?", RunID: "r1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var state domain.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "r1", state.RunID)
	assert.Equal(t, domain.PhaseDone, state.Phase)
	assert.Equal(t, 5, state.StepCount)

	w = get(h, "/runs/r1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(h, "/runs")
	assert.JSONEq(t, `{"runs":["r1"]}`, w.Body.String())

	w = post(t, h, "/runs", RunRequest{Query: "again", RunID: "r1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRun_Failed(t *testing.T) {
	empty := ports.SearchFunc(func(context.Context, string) ([]domain.Fact, error) { return nil, nil })
	h := NewHandler(newTestEngine(t, empty))

	w := post(t, h, "/runs", RunRequest{Query: "What is nothing?", MaxSteps: 4})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var state domain.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, domain.PhaseFailed, state.Phase)
	require.NotNil(t, state.Failure)
	assert.Equal(t, domain.FailureProgressBound, state.Failure.Kind)
	assert.Equal(t, 4, state.StepCount)
}

func TestCreateRun_BadInput(t *testing.T) {
	h := NewHandler(newTestEngine(t, nil))

	tests := []struct {
		name string
		body string
	}{
		{"malformed", "{"},
		{"empty query", `{"query":"   "}`},
		{"control only", `{"query":"\u0000\u0007"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateRun_Async(t *testing.T) {
	srv := NewServer(newTestEngine(t, nil, foreman.WithStore(memory.NewStore())))
	h := srv.Handler()

	w := post(t, h, "/runs", RunRequest{Query: "What is Go?", Async: true})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted AcceptedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.NotEmpty(t, accepted.RunID)
	assert.Equal(t, "/runs/"+accepted.RunID, accepted.StatusURL)

	srv.Wait()

	w = get(h, accepted.StatusURL)
	require.Equal(t, http.StatusOK, w.Code)
	var state domain.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, domain.PhaseDone, state.Phase)

	w = get(h, accepted.StatusURL+"/graph")
	assert.Contains(t, w.Body.String(), "class done current;")
}

func TestRunLifecycleErrors(t *testing.T) {
	withStore := NewHandler(newTestEngine(t, nil, foreman.WithStore(memory.NewStore())))
	noStore := NewHandler(newTestEngine(t, nil))

	assert.Equal(t, http.StatusNotFound, get(withStore, "/runs/ghost").Code)
	assert.Equal(t, http.StatusNotImplemented, get(noStore, "/runs").Code)
	assert.Equal(t, http.StatusNotFound, post(t, withStore, "/runs/ghost/resume", nil).Code)

	post(t, withStore, "/runs", RunRequest{Query: "What is Go?", RunID: "done"})
	assert.Equal(t, http.StatusConflict, post(t, withStore, "/runs/done/resume", nil).Code)

	w := httptest.NewRecorder()
	withStore.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/runs/done", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, get(withStore, "/runs/done").Code)
}

func TestInfoHealthGraph(t *testing.T) {
	h := NewHandler(newTestEngine(t, nil), WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})))

	assert.JSONEq(t, `{"status":"ok"}`, get(h, "/health").Body.String())
	assert.Contains(t, get(h, "/info").Body.String(), `"app":"foreman-http"`)
	assert.Contains(t, get(h, "/graph").Body.String(), "graph TD")
	assert.Equal(t, "metrics", get(h, "/metrics").Body.String())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	srv := NewServer(newTestEngine(t, nil))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/runs/live/events?watch=facts,phase")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: connected\n", line)

	require.Eventually(t, func() bool { return srv.Streams.Subscribers("live") == 1 }, time.Second, 10*time.Millisecond)

	body, _ := json.Marshal(RunRequest{Query: "What is Go?", RunID: "live"})
	runResp, err := http.Post(ts.URL+"/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	runResp.Body.Close()

	var diffs []domain.StateDiff
	var sawEnd bool
	scanner := bufio.NewScanner(reader)
	event := ""
	for scanner.Scan() {
		text := scanner.Text()
		switch {
		case strings.HasPrefix(text, "event: "):
			event = strings.TrimPrefix(text, "event: ")
		case strings.HasPrefix(text, "data: "):
			data := strings.TrimPrefix(text, "data: ")
			if event == "end" {
				sawEnd = true
				assert.Contains(t, data, `"phase":"done"`)
			} else if event == "" {
				var d domain.StateDiff
				require.NoError(t, json.Unmarshal([]byte(data), &d))
				diffs = append(diffs, d)
			}
			event = ""
		}
	}

	assert.True(t, sawEnd)
	assert.Len(t, diffs, 5, "every step changes the phase")
	assert.Len(t, diffs[1].Facts, 1)
	assert.Zero(t, srv.Streams.Subscribers("live"))
}

func TestSubscribeEvents_FinishedRun(t *testing.T) {
	srv := NewServer(newTestEngine(t, nil, foreman.WithStore(memory.NewStore())))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, _ := json.Marshal(RunRequest{Query: "What is Go?", RunID: "r1"})
	runResp, err := http.Post(ts.URL+"/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	runResp.Body.Close()
	require.Equal(t, http.StatusOK, runResp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/runs/r1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if text := scanner.Text(); text != "" {
			lines = append(lines, text)
		}
	}
	require.NoError(t, ctx.Err(), "stream of a finished run must close on its own")
	require.Len(t, lines, 4)
	assert.Equal(t, "event: end", lines[2])
	assert.Contains(t, lines[3], `"phase":"done"`)
	assert.Contains(t, lines[3], `"run_id":"r1"`)
	assert.Zero(t, srv.Streams.Subscribers("r1"))
}

func TestMatchesWatch(t *testing.T) {
	assert.True(t, matchesWatch(`{"run_id":"r"}`, nil))
	assert.False(t, matchesWatch(`{"run_id":"r","history":[{"agent":"supervisor"}]}`, []string{"facts"}))
	assert.True(t, matchesWatch(`{"run_id":"r","draft":"x"}`, []string{"facts", " draft"}))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("r")

	sm.Broadcast("r", Message{Data: "one"})
	sm.Broadcast("other", Message{Data: "ignored"})
	sm.Finish("r", Message{Event: "end", Data: "bye"})

	assert.Equal(t, Message{Data: "one"}, <-ch)
	assert.Equal(t, Message{Event: "end", Data: "bye"}, <-ch)
	_, open := <-ch
	assert.False(t, open)

	cancel()
	assert.Zero(t, sm.Subscribers("r"))
}
