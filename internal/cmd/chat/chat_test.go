package chat

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8082" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.StoragePath != "chat.db" {
		t.Fatalf("expected default storage path, got %q", cfg.StoragePath)
	}
	if cfg.TokenIssuer != "inkwell" {
		t.Fatalf("expected default token issuer, got %q", cfg.TokenIssuer)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("INKWELL_CHAT_HTTP_ADDR", "env-addr")
	t.Setenv("INKWELL_CHAT_STORAGE_PATH", "env-chat.db")
	t.Setenv("INKWELL_REDIS_ADDR", "env-redis")

	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	args := []string{
		"-http-addr", "flag-addr",
		"-storage-path", "flag-chat.db",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-addr" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.StoragePath != "flag-chat.db" {
		t.Fatalf("expected flag storage path, got %q", cfg.StoragePath)
	}
	if cfg.RedisAddr != "env-redis" {
		t.Fatalf("expected env redis addr, got %q", cfg.RedisAddr)
	}
}
