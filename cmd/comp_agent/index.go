package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/comp-collector/internal/observability"
)

var (
	indexLookup string
	indexLimit  int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Refresh and list the job index",
	Long:  `Crawls the statistics site for occupation pages, prints the index, and optionally resolves a title against it.`,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexLookup, "lookup", "", "Resolve this job title against the index")
	indexCmd.Flags().IntVar(&indexLimit, "limit", 25, "Maximum entries to list (0 lists all)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	index, err := newIndex(cfg, log)
	if err != nil {
		return err
	}
	if err := index.Refresh(ctx); err != nil {
		return err
	}
	entries, err := index.Entries(ctx)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintIndexStatus(index.Status())
	if indexLookup == "" {
		printer.PrintIndexEntries(entries, indexLimit)
		return nil
	}
	res, err := index.Lookup(ctx, indexLookup)
	if err != nil {
		return err
	}
	printer.PrintLookup(indexLookup, res)
	return nil
}
