// Package mcp parses MCP command flags and serves authoring tools on stdio.
package mcp

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/inkwellhq/inkwell/internal/platform/cmd"
	server "github.com/inkwellhq/inkwell/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	ContentStoragePath string `env:"INKWELL_CONTENT_STORAGE_PATH" envDefault:"content.db"`

	AIAPIKey       string `env:"INKWELL_AI_API_KEY"`
	AIModel        string `env:"INKWELL_AI_MODEL"         envDefault:"gpt-4o-mini"`
	AIResponsesURL string `env:"INKWELL_AI_RESPONSES_URL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ContentStoragePath, "content-storage-path", cfg.ContentStoragePath, "content SQLite database path")
	fs.StringVar(&cfg.AIModel, "ai-model", cfg.AIModel, "model used for draft generation")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the MCP server on stdio until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			ContentStoragePath: cfg.ContentStoragePath,
			AIAPIKey:           cfg.AIAPIKey,
			AIModel:            cfg.AIModel,
			AIResponsesURL:     cfg.AIResponsesURL,
		}); err != nil {
			return fmt.Errorf("serve mcp: %w", err)
		}
		return nil
	})
}
