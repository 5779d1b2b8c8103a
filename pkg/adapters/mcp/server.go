// Package mcp exposes the workflow engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/internal/presentation/graph"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/input"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// WorkflowURI identifies the workflow diagram resource.
const WorkflowURI = "foreman://workflow"

// Engine is the subset of the foreman engine exposed over MCP.
type Engine interface {
	Run(ctx context.Context, query string, opts ...foreman.RunOption) (*domain.State, error)
	Resume(ctx context.Context, runID string, opts ...foreman.RunOption) (*domain.State, error)
	Load(ctx context.Context, runID string) (*domain.State, error)
	List(ctx context.Context) ([]string, error)
}

// RunResult is the structured output of run_workflow and resume_run.
type RunResult struct {
	State   *domain.State `json:"state" jsonschema_description:"Final state of the run"`
	Output  string        `json:"output" jsonschema_description:"The final draft, empty when the run failed"`
	Failed  bool          `json:"failed" jsonschema_description:"Whether the run ended in the failed phase"`
	Failure string        `json:"failure,omitempty" jsonschema_description:"Failure kind and detail"`
}

// RunList is the structured output of list_runs.
type RunList struct {
	Runs []string `json:"runs" jsonschema_description:"IDs of persisted runs"`
}

// RunArgs are the arguments of run_workflow.
type RunArgs struct {
	Query    string `json:"query"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

// RunIDArgs identify a persisted run.
type RunIDArgs struct {
	RunID string `json:"run_id"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("foreman-mcp", strings.TrimSpace(foreman.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("run_workflow",
		mcp.WithDescription("Answer a query with the research and writing team. Research questions gather facts before writing; pure writing requests go straight to the writer."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query")),
		mcp.WithNumber("max_steps", mcp.Description("Optional bound on node executions for this run")),
		mcp.WithOutputSchema[RunResult](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Fetch the persisted state of a run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run identifier")),
		mcp.WithOutputSchema[RunResult](),
	), mcp.NewStructuredToolHandler(s.handleGetRun))

	s.mcpServer.AddTool(mcp.NewTool("resume_run",
		mcp.WithDescription("Continue an interrupted run from its last checkpoint."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run identifier")),
		mcp.WithOutputSchema[RunResult](),
	), mcp.NewStructuredToolHandler(s.handleResume))

	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List persisted run IDs."),
		mcp.WithOutputSchema[RunList](),
	), mcp.NewStructuredToolHandler(s.handleList))
}

func (s *Server) handleRun(ctx context.Context, _ mcp.CallToolRequest, args RunArgs) (RunResult, error) {
	query, err := input.Sanitize(args.Query)
	if err != nil {
		s.logger.Warn("MCP run_workflow: Input rejected", "err", err, "size", len(args.Query))
		return RunResult{}, fmt.Errorf("input rejected: %w", err)
	}
	state, err := s.engine.Run(ctx, query, foreman.WithRunMaxSteps(args.MaxSteps))
	return toResult(state, err)
}

func (s *Server) handleResume(ctx context.Context, _ mcp.CallToolRequest, args RunIDArgs) (RunResult, error) {
	if args.RunID == "" {
		return RunResult{}, errors.New("run_id is required")
	}
	state, err := s.engine.Resume(ctx, args.RunID)
	if errors.Is(err, domain.ErrRunFinished) {
		return toResult(state, nil)
	}
	return toResult(state, err)
}

func (s *Server) handleGetRun(ctx context.Context, _ mcp.CallToolRequest, args RunIDArgs) (RunResult, error) {
	if args.RunID == "" {
		return RunResult{}, errors.New("run_id is required")
	}
	state, err := s.engine.Load(ctx, args.RunID)
	if err != nil {
		return RunResult{}, fmt.Errorf("get run failed: %w", err)
	}
	return toResult(state, nil)
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (RunList, error) {
	ids, err := s.engine.List(ctx)
	if err != nil {
		return RunList{}, fmt.Errorf("list runs failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return RunList{Runs: ids}, nil
}

// toResult keeps failed runs as successful tool results so the caller sees
// the state; only errors without a state become tool errors.
func toResult(state *domain.State, err error) (RunResult, error) {
	if state == nil {
		if err == nil {
			err = errors.New("no state returned")
		}
		return RunResult{}, err
	}
	res := RunResult{State: state, Output: state.Draft, Failed: state.Phase == domain.PhaseFailed}
	if state.Failure != nil {
		res.Failure = state.Failure.Error()
	}
	if err != nil && state.Failure == nil {
		return RunResult{}, err
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(WorkflowURI, "Workflow Diagram",
		mcp.WithResourceDescription("Mermaid flowchart of the supervisor, research and writing nodes"),
		mcp.WithMIMEType("text/plain"),
	), s.readWorkflow)
}

func (s *Server) readWorkflow(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      WorkflowURI,
			MIMEType: "text/plain",
			Text:     graph.GenerateMermaid(nil),
		},
	}, nil
}
