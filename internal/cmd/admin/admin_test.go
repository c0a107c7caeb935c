package admin

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.OperatorID != "operator" {
		t.Fatalf("expected default operator id, got %q", cfg.OperatorID)
	}
	if cfg.AIModel != "gpt-4o-mini" {
		t.Fatalf("expected default ai model, got %q", cfg.AIModel)
	}
	if !cfg.S3UseSSL {
		t.Fatal("expected s3 ssl enabled by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("INKWELL_ADMIN_HTTP_ADDR", "env-addr")
	t.Setenv("INKWELL_OPERATOR_KEY", "env-key")
	t.Setenv("INKWELL_S3_ENDPOINT", "env-endpoint")

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	args := []string{
		"-http-addr", "flag-addr",
		"-operator-key", "flag-key",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-addr" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.OperatorKey != "flag-key" {
		t.Fatalf("expected flag operator key, got %q", cfg.OperatorKey)
	}
	if cfg.S3Endpoint != "env-endpoint" {
		t.Fatalf("expected env s3 endpoint, got %q", cfg.S3Endpoint)
	}
}
