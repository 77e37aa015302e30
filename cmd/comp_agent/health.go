package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/comp-collector/internal/observability"
	"github.com/jonathan/comp-collector/internal/server"
	"github.com/jonathan/comp-collector/internal/sources"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check every source adapter",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	checks := a.sources.CheckAll(ctx)
	observability.NewPrinter(cmd.OutOrStdout()).PrintHealth(checks)
	if overall := server.Overall(checks); overall == sources.StatusUnhealthy {
		return fmt.Errorf("sources are %s", overall)
	}
	return nil
}
