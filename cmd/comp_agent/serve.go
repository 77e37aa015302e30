package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/comp-collector/internal/server"
	"github.com/jonathan/comp-collector/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for searching, clarification follow-ups, streaming progress, and report export.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	port := servePort
	if port == 0 {
		if port, err = parsePort(a.cfg.Port, 8080); err != nil {
			return err
		}
	}

	wf, err := a.workflow(ctx)
	if err != nil {
		return err
	}
	a.warmIndex(ctx)

	srv := server.New(server.Config{
		Port:       port,
		RateLimit:  ratelimit.LoadConfig(),
		SessionTTL: a.cfg.SessionTTLDuration(),
	}, wf, a.sources,
		server.WithLogger(a.log.With("component", "server")),
		server.WithMetrics(a.metrics),
	)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
