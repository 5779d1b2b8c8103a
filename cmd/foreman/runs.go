package main

import (
	"github.com/aretw0/foreman/internal/cli"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage persisted runs",
	Long:  `List, inspect, and remove runs checkpointed in the configured store.`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List persisted runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()
		return cli.ListRuns(cmd.Context(), stack.Engine, cmd.OutOrStdout())
	},
}

var runsInspectCmd = &cobra.Command{
	Use:   "inspect <run-id>",
	Short: "Print the state of a run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()
		return cli.InspectRun(cmd.Context(), stack.Engine, args[0], cmd.OutOrStdout())
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()
		return cli.RemoveRuns(cmd.Context(), stack.Engine, args, cmd.OutOrStdout())
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [run-id]",
	Short: "Export the workflow as a Mermaid diagram",
	Long:  `Prints the workflow graph (graph TD). With a run ID the path taken by that run is highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cli.PrintGraph(cmd.Context(), nil, "", cmd.OutOrStdout())
		}
		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()
		return cli.PrintGraph(cmd.Context(), stack.Engine, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd)
	runsCmd.AddCommand(runsInspectCmd)
	runsCmd.AddCommand(runsRmCmd)
	rootCmd.AddCommand(graphCmd)
}
