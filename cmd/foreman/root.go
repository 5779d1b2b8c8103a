package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/foreman/internal/cli"
	"github.com/aretw0/foreman/internal/config"
	"github.com/aretw0/foreman/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Foreman is a supervised research and writing team",
	Long: `Foreman answers a query with three agents: a supervisor that classifies the task
and routes it, a research agent that searches the web, and a writing agent that
drafts the final answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if offline, _ := cmd.Flags().GetBool("offline"); offline {
			loaded.Offline()
		}
		cfg = loaded

		debug, _ := cmd.Flags().GetBool("debug")
		logger = cli.NewLogger(cfg.LogLevel, debug)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default ./foreman.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine lifecycle events to stderr")
	rootCmd.PersistentFlags().Bool("offline", false, "Use the built-in offline collaborators (no API keys needed)")
}

func newStack(cmd *cobra.Command, metrics bool) (*cli.Stack, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewStack(cfg, logger, cli.StackOptions{Debug: debug, Metrics: metrics})
}

func console(cmd *cobra.Command) cli.Console {
	con := cli.Console{
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
		Render: tui.PlainRenderer,
	}
	if f, ok := con.Out.(*os.File); ok {
		con.Render = tui.RendererFor(f)
	}
	return con
}
