package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Port != 3306 {
		t.Errorf("expected database port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Database.TLS != "preferred" {
		t.Errorf("expected database TLS 'preferred', got %s", cfg.Database.TLS)
	}
	if cfg.Database.MaxConnections != 10 {
		t.Errorf("expected database max_connections 10, got %d", cfg.Database.MaxConnections)
	}
	if cfg.Database.MaxIdleConnections != 5 {
		t.Errorf("expected database max_idle_connections 5, got %d", cfg.Database.MaxIdleConnections)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected logging format 'json', got %s", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected logging output 'stdout', got %s", cfg.Logging.Output)
	}
}

func TestInspectSchema(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Database = "appdb"

	if got := cfg.InspectSchema(); got != "appdb" {
		t.Errorf("expected fallback to database name 'appdb', got %s", got)
	}

	cfg.Inspect.Schema = "testdata"
	if got := cfg.InspectSchema(); got != "testdata" {
		t.Errorf("expected explicit schema 'testdata', got %s", got)
	}
}

func TestExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Inspect.ExcludeTables = []string{"schema_migrations", "ar_internal_metadata"}

	tests := []struct {
		table    string
		excluded bool
	}{
		{"schema_migrations", true},
		{"ar_internal_metadata", true},
		{"users", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := cfg.Excluded(tt.table); got != tt.excluded {
			t.Errorf("Excluded(%q) = %v, expected %v", tt.table, got, tt.excluded)
		}
	}
}
