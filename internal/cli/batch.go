package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/input"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds batch runs in flight.
const DefaultConcurrency = 4

// BatchResult is the outcome of one batch query.
type BatchResult struct {
	Query string        `json:"query"`
	RunID string        `json:"run_id,omitempty"`
	Phase domain.Phase  `json:"phase,omitempty"`
	Steps int           `json:"steps"`
	Draft string        `json:"draft,omitempty"`
	Error string        `json:"error,omitempty"`
	State *domain.State `json:"-"`
}

// ReadQueries returns the non-blank lines of r, skipping '#' comments.
func ReadQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, scanner.Err()
}

// RunBatch executes independent queries concurrently, at most concurrency at
// a time. Results keep the order of queries. A failed run does not stop the
// others; only cancellation of ctx does.
func RunBatch(ctx context.Context, eng *foreman.Engine, queries []string, concurrency int, maxSteps int) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	results := make([]BatchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := BatchResult{Query: q}
			query, err := input.Sanitize(q)
			if err != nil {
				res.Error = err.Error()
				results[i] = res
				return nil
			}
			state, err := eng.Run(gctx, query, foreman.WithRunMaxSteps(maxSteps))
			if state != nil {
				res.RunID, res.Phase, res.Steps, res.Draft, res.State = state.RunID, state.Phase, state.StepCount, state.Draft, state
			}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	return results, g.Wait()
}

// WriteBatch prints results as JSON lines or as a short report.
func WriteBatch(w io.Writer, results []BatchResult, jsonLines bool) error {
	if jsonLines {
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	failed := 0
	for i, r := range results {
		status := string(r.Phase)
		if r.Error != "" {
			status = "error: " + r.Error
			failed++
		}
		fmt.Fprintf(w, "%d. %s\n   run=%s steps=%d %s\n", i+1, r.Query, r.RunID, r.Steps, status)
	}
	fmt.Fprintf(w, "\n%d/%d runs succeeded\n", len(results)-failed, len(results))
	return nil
}
