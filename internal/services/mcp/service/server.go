// Package service hosts the MCP server that exposes content authoring
// tools to AI agents over stdio.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwellhq/inkwell/internal/services/ai"
	"github.com/inkwellhq/inkwell/internal/services/content"
	contentsqlite "github.com/inkwellhq/inkwell/internal/services/content/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Inkwell MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Config configures the MCP server.
type Config struct {
	ContentStoragePath string

	// Draft generation is optional; the draft_generate tool reports an
	// error when no API key is configured.
	AIAPIKey       string
	AIModel        string
	AIResponsesURL string
}

// Server hosts the MCP server over a local content store.
type Server struct {
	mcpServer *mcp.Server
	store     *contentsqlite.Store
}

// New creates a configured MCP server backed by the content database.
func New(cfg Config) (*Server, error) {
	store, err := contentsqlite.Open(cfg.ContentStoragePath)
	if err != nil {
		return nil, fmt.Errorf("open content storage: %w", err)
	}
	svc := content.NewService(store)

	var generator ai.Generator
	if cfg.AIAPIKey != "" {
		generator, err = ai.NewOpenAIGenerator(ai.OpenAIConfig{
			ResponsesURL: cfg.AIResponsesURL,
			APIKey:       cfg.AIAPIKey,
			Model:        cfg.AIModel,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("configure draft generator: %w", err)
		}
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{})
	registerContentTools(mcpServer, svc, generator)
	registerContentResources(mcpServer, svc)

	return &Server{mcpServer: mcpServer, store: store}, nil
}

// Run creates and serves the MCP server on stdio until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	defer server.Close()

	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return err
}

// Close releases the content store held by the server.
func (s *Server) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	s.store = nil
	return nil
}
