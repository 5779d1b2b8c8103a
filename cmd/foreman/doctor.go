package main

import (
	"errors"

	"github.com/aretw0/foreman/internal/cli"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check credentials and store connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cli.WriteChecks(cmd.OutOrStdout(), cli.Diagnose(cmd.Context(), cfg)) {
			return errors.New("setup incomplete")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
