package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ContentStoragePath != "content.db" {
		t.Fatalf("expected default storage path, got %q", cfg.ContentStoragePath)
	}
	if cfg.AIModel != "gpt-4o-mini" {
		t.Fatalf("expected default ai model, got %q", cfg.AIModel)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("INKWELL_CONTENT_STORAGE_PATH", "env-content.db")
	t.Setenv("INKWELL_AI_API_KEY", "env-key")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{
		"-content-storage-path", "flag-content.db",
		"-ai-model", "flag-model",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ContentStoragePath != "flag-content.db" {
		t.Fatalf("expected flag storage path, got %q", cfg.ContentStoragePath)
	}
	if cfg.AIModel != "flag-model" {
		t.Fatalf("expected flag ai model, got %q", cfg.AIModel)
	}
	if cfg.AIAPIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.AIAPIKey)
	}
}
