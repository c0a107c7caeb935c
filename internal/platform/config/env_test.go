package config

import "testing"

type envTarget struct {
	Addr   string `env:"INKWELL_TEST_ADDR" envDefault:"localhost:9090"`
	DBPath string `env:"INKWELL_TEST_DB_PATH"`
}

func TestParseEnvAppliesDefaults(t *testing.T) {
	var cfg envTarget
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "localhost:9090" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
}

func TestParseEnvReadsVariables(t *testing.T) {
	t.Setenv("INKWELL_TEST_ADDR", "0.0.0.0:7000")
	t.Setenv("INKWELL_TEST_DB_PATH", "/tmp/inkwell.db")

	var cfg envTarget
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "0.0.0.0:7000" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/inkwell.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
}
