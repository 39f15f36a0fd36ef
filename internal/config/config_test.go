package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/gastapp.db" {
		t.Errorf("default db path = %s", cfg.SQLiteDBPath)
	}
	if cfg.AMQPQueue != "budget_alerts" {
		t.Errorf("default queue = %s", cfg.AMQPQueue)
	}
	if cfg.StatusCacheTTL != 30*time.Second {
		t.Errorf("default cache TTL = %v", cfg.StatusCacheTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AMQP_EXCHANGE", "testing")
	t.Setenv("STATUS_CACHE_SIZE", "10")
	t.Setenv("STATUS_CACHE_TTL", "2m")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Port)
	}
	if cfg.AMQPExchange != "testing" {
		t.Errorf("exchange = %s, want testing", cfg.AMQPExchange)
	}
	if cfg.StatusCacheSize != 10 {
		t.Errorf("cache size = %d, want 10", cfg.StatusCacheSize)
	}
	if cfg.StatusCacheTTL != 2*time.Minute {
		t.Errorf("cache TTL = %v, want 2m", cfg.StatusCacheTTL)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("STATUS_CACHE_SIZE", "not-a-number")
	t.Setenv("STATUS_CACHE_TTL", "soon")

	cfg := Load()
	if cfg.StatusCacheSize != 256 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.StatusCacheSize)
	}
	if cfg.StatusCacheTTL != 30*time.Second {
		t.Errorf("malformed duration should fall back to default, got %v", cfg.StatusCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) { c.SQLiteDBPath = "gastapp.db" },
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "http" },
			wantErr: "invalid port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "invalid port",
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.SQLiteDBPath = "" },
			wantErr: "database path",
		},
		{
			name: "bad amqp scheme",
			mutate: func(c *Config) {
				c.SQLiteDBPath = "gastapp.db"
				c.AMQPURL = "http://localhost:5672"
			},
			wantErr: "AMQP URL scheme",
		},
		{
			name: "empty queue with amqp configured",
			mutate: func(c *Config) {
				c.SQLiteDBPath = "gastapp.db"
				c.AMQPQueue = ""
			},
			wantErr: "queue name",
		},
		{
			name: "missing catalog file",
			mutate: func(c *Config) {
				c.SQLiteDBPath = "gastapp.db"
				c.CatalogPath = "/does/not/exist.json"
			},
			wantErr: "catalog file",
		},
		{
			name: "tiny cache TTL",
			mutate: func(c *Config) {
				c.SQLiteDBPath = "gastapp.db"
				c.StatusCacheTTL = time.Millisecond
			},
			wantErr: "cache TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
