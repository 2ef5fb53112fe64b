package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dbsmedya/gofactory/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.DatabaseConfig
		contains []string
	}{
		{
			name: "basic DSN",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "testdb",
				TLS:      "preferred",
			},
			contains: []string{
				"root:secret@tcp(localhost:3306)/testdb",
				"parseTime=true",
				"tls=preferred",
			},
		},
		{
			name: "DSN without database",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				TLS:      "preferred",
			},
			contains: []string{"root:secret@tcp(localhost:3306)/?"},
		},
		{
			name: "DSN with TLS disabled",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "testdb",
				TLS:      "disable",
			},
			contains: []string{"tls=false"},
		},
		{
			name: "DSN with TLS required",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "testdb",
				TLS:      "required",
			},
			contains: []string{"tls=true"},
		},
		{
			name: "DSN with custom port",
			cfg: &config.DatabaseConfig{
				Host:     "remote-host",
				Port:     3307,
				User:     "admin",
				Password: "secret",
				Database: "mydb",
				TLS:      "preferred",
			},
			contains: []string{"@tcp(remote-host:3307)/mydb"},
		},
		{
			name: "TLS empty defaults to preferred",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "testdb",
			},
			contains: []string{"tls=preferred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("BuildDSN() = %q, should contain %q", result, want)
				}
			}
		})
	}
}

func TestNewManager(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "secret",
			Database: "testdb",
		},
	}

	manager := NewManager(cfg)
	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}

	if manager.config != cfg {
		t.Error("manager.config should point to provided config")
	}

	if manager.DB != nil {
		t.Error("DB should be nil before Connect()")
	}
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	manager := NewManager(&config.Config{
		Database: config.DatabaseConfig{Host: "localhost"},
	})

	// Should not panic when closing unconnected manager
	err := manager.Close()
	if err != nil {
		t.Errorf("Close() returned error for unconnected manager: %v", err)
	}
}

func TestManagerPingWithoutConnect(t *testing.T) {
	manager := NewManager(&config.Config{
		Database: config.DatabaseConfig{Host: "localhost"},
	})

	if err := manager.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail for unconnected manager")
	}
}

func TestManagerGormWithoutConnect(t *testing.T) {
	manager := NewManager(&config.Config{
		Database: config.DatabaseConfig{Host: "localhost"},
	})

	if _, err := manager.Gorm(); err == nil {
		t.Error("Gorm() should fail for unconnected manager")
	}
}

func TestConnectCancelledContext(t *testing.T) {
	manager := NewManager(&config.Config{
		Database: config.DatabaseConfig{
			// Unroutable address so the connect attempt fails fast
			Host:     "127.0.0.1",
			Port:     1,
			User:     "root",
			Password: "secret",
			Database: "testdb",
			TLS:      "disable",
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := manager.Connect(ctx)
	if err == nil {
		t.Fatal("Connect() should fail against a closed port")
	}
	if time.Since(start) > 10*time.Second {
		t.Error("Connect() should give up once the context expires")
	}
}

func TestNewManager_NilConfig(t *testing.T) {
	manager := NewManager(nil)
	if manager == nil {
		t.Fatal("NewManager() should not return nil even with nil config")
	}
	if manager.config != nil {
		t.Error("manager.config should be nil when provided nil config")
	}
}
