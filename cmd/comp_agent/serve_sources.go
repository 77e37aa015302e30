package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/comp-collector/internal/mcp"
)

var (
	sourcesHost string
	sourcesPort int
)

var serveSourcesCmd = &cobra.Command{
	Use:   "serve-sources",
	Short: "Serve the source adapters as MCP tools",
	Long: `Runs the statistics, compensation database, and job board adapters in this process
and exposes them over MCP streamable HTTP at ` + mcp.StreamPath + `. Point SOURCES_MCP_URL
of the API server at it to run scraping on a separate host.`,
	RunE: runServeSources,
}

func init() {
	serveSourcesCmd.Flags().StringVar(&sourcesHost, "host", "0.0.0.0", "Interface to listen on")
	serveSourcesCmd.Flags().IntVar(&sourcesPort, "port", 8090, "Port to listen on")
	rootCmd.AddCommand(serveSourcesCmd)
}

func runServeSources(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	a.warmIndex(ctx)

	srv := mcp.NewServer(a.sources, sourcesHost, strconv.Itoa(sourcesPort), a.log.With("component", "mcp"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
