// Package mcp exposes the source adapters as MCP tools and provides a
// client that implements the source interfaces over those tools, so the
// adapters can run in a separate process.
package mcp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
)

// StreamPath is where the streamable HTTP transport is mounted.
const StreamPath = "/mcp/stream"

// Version is reported in the MCP implementation info.
const Version = "0.1.0"

// NewToolServer builds an MCP server with every source tool registered.
func NewToolServer(set sources.Set, log *logging.Logger) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "comp-collector-sources",
		Version: Version,
	}, nil)
	RegisterTools(server, set, log)
	return server
}

// Server wraps an MCP SDK server with an HTTP listener
type Server struct {
	logger *logging.Logger

	srv     *http.Server
	started atomic.Bool
}

// NewServer constructs an MCP HTTP server for the adapter set.
func NewServer(set sources.Set, host, port string, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	mcpServer := NewToolServer(set, log)

	return &Server{
		logger: log,
		srv: &http.Server{
			Addr:              net.JoinHostPort(host, port),
			Handler:           Handler(mcpServer),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler serves the MCP stream plus a liveness probe.
func Handler(mcpServer *sdkmcp.Server) http.Handler {
	stream := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(StreamPath, stream)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run starts the HTTP server and blocks until shutdown
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("MCP HTTP server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutdown requested for MCP HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("MCP HTTP server shutdown with error", "error", err)
		return err
	}
	s.logger.Info("MCP HTTP server shutdown complete")
	return nil
}
