package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/foreman/internal/cli"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run many independent queries concurrently",
	Long:  `Reads one query per line from a file (or stdin with -f -) and runs them concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")
		jsonLines, _ := cmd.Flags().GetBool("json")

		in := cmd.InOrStdin()
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("error opening batch file: %w", err)
			}
			defer f.Close()
			in = f
		}
		queries, err := cli.ReadQueries(in)
		if err != nil {
			return err
		}

		stack, err := newStack(cmd, false)
		if err != nil {
			return err
		}
		defer stack.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		results, err := cli.RunBatch(ctx, stack.Engine, queries, concurrency, maxSteps)
		if werr := cli.WriteBatch(cmd.OutOrStdout(), results, jsonLines); werr != nil {
			return werr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringP("file", "f", "-", "File with one query per line ('-' for stdin)")
	batchCmd.Flags().IntP("concurrency", "c", cli.DefaultConcurrency, "Maximum runs in flight")
	batchCmd.Flags().Int("max-steps", 0, "Override the progress bound for each run")
	batchCmd.Flags().Bool("json", false, "Print one JSON result per line")
}
