package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/presentation/tui"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/input"
)

// Console bundles the streams a command talks to.
type Console struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Render tui.RenderFunc
}

// RunOptions contains the configuration of the run and resume commands.
type RunOptions struct {
	Query       string
	RunID       string
	MaxSteps    int
	Interactive bool
	Quiet       bool
	NoSummary   bool
	JSON        bool
}

func (o RunOptions) runOptions(con Console) []foreman.RunOption {
	opts := []foreman.RunOption{foreman.WithRunMaxSteps(o.MaxSteps)}
	if o.RunID != "" {
		opts = append(opts, foreman.WithRunID(o.RunID))
	}
	if !o.Quiet && !o.JSON {
		opts = append(opts, foreman.WithStepObserver(tui.StepPrinter(con.Err)))
	}
	return opts
}

// Execute handles the run command, dispatching to a single query or the
// interactive loop.
func Execute(ctx context.Context, eng *foreman.Engine, opts RunOptions, con Console) error {
	if opts.Interactive || strings.TrimSpace(opts.Query) == "" {
		return Interactive(ctx, eng, opts, con)
	}
	_, err := RunQuery(ctx, eng, opts, con)
	return err
}

// RunQuery executes one query and prints its outcome. A failed run is
// reported and returned as an error.
func RunQuery(ctx context.Context, eng *foreman.Engine, opts RunOptions, con Console) (*domain.State, error) {
	query, err := input.Sanitize(opts.Query)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	if !opts.Quiet && !opts.JSON {
		printSystemMessage(con.Err, "Query: %s", query)
	}

	state, err := eng.Run(ctx, query, opts.runOptions(con)...)
	return state, report(state, err, opts, con)
}

// ResumeRun continues a persisted run and prints its outcome.
func ResumeRun(ctx context.Context, eng *foreman.Engine, runID string, opts RunOptions, con Console) error {
	opts.RunID = ""
	state, err := eng.Resume(ctx, runID, opts.runOptions(con)...)
	if errors.Is(err, domain.ErrRunFinished) {
		if !opts.Quiet && !opts.JSON {
			printSystemMessage(con.Err, "Run '%s' already finished.", runID)
		}
		err = nil
	}
	return report(state, err, opts, con)
}

func report(state *domain.State, err error, opts RunOptions, con Console) error {
	if state == nil {
		return err
	}

	switch {
	case opts.JSON:
		enc := json.NewEncoder(con.Out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(state); encErr != nil {
			return encErr
		}
	case opts.NoSummary:
		if state.Draft != "" {
			fmt.Fprintln(con.Out, state.Draft)
		}
	default:
		tui.WriteSummary(con.Out, state, con.Render)
	}

	if err != nil && isInterrupted(err) && !opts.Quiet {
		printSystemMessage(con.Err, "Interrupted at step %d. Resume with: foreman resume %s", state.StepCount, state.RunID)
	}
	return err
}

// Interactive reads queries line by line until quit, EOF or cancellation.
func Interactive(ctx context.Context, eng *foreman.Engine, opts RunOptions, con Console) error {
	opts.RunID = ""
	fmt.Fprintln(con.Out, "Interactive Mode - Type 'quit' or 'exit' to stop")

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(con.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		fmt.Fprint(con.Out, "\nEnter your query: ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(con.Out)
			printSystemMessage(con.Err, "Interrupted. Goodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(con.Out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			printSystemMessage(con.Err, "Goodbye!")
			return nil
		case "":
			printSystemMessage(con.Err, "Please enter a valid query")
			continue
		}

		opts.Query = line
		if _, err := RunQuery(ctx, eng, opts, con); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printSystemMessage(con.Err, "Error: %v", err)
		}
	}
}
