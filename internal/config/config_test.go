package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}

	if cfg.Workers != 4 {
		t.Fatalf("expected default worker count 4, got %d", cfg.Workers)
	}

	if cfg.Host != "0.0.0.0" {
		t.Fatalf("expected default host 0.0.0.0, got %s", cfg.Host)
	}

	if cfg.Env != EnvDevelopment {
		t.Fatalf("expected default env development, got %s", cfg.Env)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	if cfg.Port != DefaultPort {
		t.Fatalf("expected port %d, got %d", DefaultPort, cfg.Port)
	}

	if cfg.Workers != DefaultWorkers {
		t.Fatalf("expected workers %d, got %d", DefaultWorkers, cfg.Workers)
	}

	if cfg.GracefulTimeout != 30*time.Second {
		t.Fatalf("expected graceful timeout 30s, got %s", cfg.GracefulTimeout)
	}

	if cfg.Store == nil || cfg.AI == nil {
		t.Fatalf("expected store and ai sections to be initialized")
	}
}

func TestProductionForcesDebugOff(t *testing.T) {
	cfg := New()
	cfg.Env = "Production"
	cfg.Debug = true

	cfg.Normalize()

	if cfg.Debug {
		t.Fatalf("production must force debug off")
	}

	if !cfg.Production() {
		t.Fatalf("expected Production() to report true")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Env = "staging" },
			wantErr: "unknown environment",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Workers = -1 },
			wantErr: "workers",
		},
		{
			name: "ai enabled without gemini",
			mutate: func(c *Config) {
				c.AI = &AIConfig{Enabled: true}
			},
			wantErr: "gemini configuration is required",
		},
		{
			name: "unsupported provider",
			mutate: func(c *Config) {
				c.AI = &AIConfig{Enabled: true, Provider: "openai"}
			},
			wantErr: "unsupported ai provider",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := New()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tc.wantErr, err)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := New()
	cfg.Port = 8080

	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr: %s", got)
	}
}
