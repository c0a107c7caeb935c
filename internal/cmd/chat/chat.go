// Package chat parses chat command flags and composes the live-chat service.
package chat

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/inkwellhq/inkwell/internal/platform/cmd"
	server "github.com/inkwellhq/inkwell/internal/services/chat/app"
)

// Config holds chat command configuration.
type Config struct {
	HTTPAddr    string `env:"INKWELL_CHAT_HTTP_ADDR"    envDefault:":8082"`
	StoragePath string `env:"INKWELL_CHAT_STORAGE_PATH" envDefault:"chat.db"`
	RedisAddr   string `env:"INKWELL_REDIS_ADDR"`
	TokenIssuer string `env:"INKWELL_TOKEN_ISSUER"      envDefault:"inkwell"`
	TokenSecret string `env:"INKWELL_TOKEN_SECRET"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "chat HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "chat SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for rate-limit counters (in-memory when empty)")
	fs.StringVar(&cfg.TokenIssuer, "token-issuer", cfg.TokenIssuer, "operator token issuer")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "operator token signing secret")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the chat app and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceChat, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:    cfg.HTTPAddr,
			StoragePath: cfg.StoragePath,
			RedisAddr:   cfg.RedisAddr,
			TokenIssuer: cfg.TokenIssuer,
			TokenSecret: cfg.TokenSecret,
		}); err != nil {
			return fmt.Errorf("serve chat: %w", err)
		}
		return nil
	})
}
