package main

import (
	"context"
	"os"
	"strings"

	"github.com/aretw0/foreman/internal/cli"
	"github.com/aretw0/foreman/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Answer a query",
	Long: `Runs the supervisor loop for a query and prints the workflow summary.
Without a query (or with --interactive) foreman reads queries from stdin.`,
	Example: `  foreman run "What are the latest developments in quantum computing?"
  foreman run --interactive
  foreman run --quiet --no-summary "Write a haiku about Go"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptionsFromFlags(cmd)
		opts.Query = strings.Join(args, " ")
		opts.Interactive, _ = cmd.Flags().GetBool("interactive")
		opts.RunID, _ = cmd.Flags().GetString("run-id")

		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()

		if !opts.Quiet && !opts.JSON && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Execute(ctx, stack.Engine, opts, console(cmd))
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Continue an interrupted run from its last checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.ResumeRun(ctx, stack.Engine, args[0], runOptionsFromFlags(cmd), console(cmd))
	},
}

func runOptionsFromFlags(cmd *cobra.Command) cli.RunOptions {
	var opts cli.RunOptions
	opts.Quiet, _ = cmd.Flags().GetBool("quiet")
	opts.NoSummary, _ = cmd.Flags().GetBool("no-summary")
	opts.JSON, _ = cmd.Flags().GetBool("json")
	opts.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
	return opts
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("quiet", "q", false, "Suppress progress output, show only the result")
	cmd.Flags().Bool("no-summary", false, "Print only the final output")
	cmd.Flags().Bool("json", false, "Print the final state as JSON")
	cmd.Flags().Int("max-steps", 0, "Override the progress bound for this run")
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)

	addOutputFlags(runCmd)
	runCmd.Flags().BoolP("interactive", "i", false, "Read queries from stdin until 'quit'")
	runCmd.Flags().String("run-id", "", "Use this run ID instead of a generated one")

	addOutputFlags(resumeCmd)
}
