package supervisor

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewNormalizesOptions(t *testing.T) {
	t.Parallel()

	s := New(zap.NewNop(), Options{Workers: 0})

	if s.opts.Workers != 1 {
		t.Fatalf("expected workers to be clamped to 1, got %d", s.opts.Workers)
	}

	if s.opts.GracefulTimeout != 30*time.Second {
		t.Fatalf("expected default graceful timeout, got %s", s.opts.GracefulTimeout)
	}
}

func TestWorkerEnv(t *testing.T) {
	t.Parallel()

	env := WorkerEnv([]string{"PATH=/usr/bin", EnvWorkerID + "=9"}, 2)

	var found string
	for _, entry := range env {
		if strings.HasPrefix(entry, EnvWorkerID+"=") {
			if found != "" {
				t.Fatalf("duplicate worker id entries: %v", env)
			}
			found = entry
		}
	}

	if found != EnvWorkerID+"=2" {
		t.Fatalf("expected worker id 2, got %q", found)
	}

	if env[0] != "PATH=/usr/bin" {
		t.Fatalf("expected unrelated entries preserved, got %v", env)
	}
}

func TestWorkerIDOutsidePool(t *testing.T) {
	t.Setenv(EnvWorkerID, "")

	if id := WorkerID(); id != 0 {
		t.Fatalf("expected 0 outside a pool, got %d", id)
	}

	t.Setenv(EnvWorkerID, "not-a-number")
	if id := WorkerID(); id != 0 {
		t.Fatalf("expected 0 for malformed id, got %d", id)
	}
}

func TestWorkerID(t *testing.T) {
	t.Setenv(EnvWorkerID, "3")

	if id := WorkerID(); id != 3 {
		t.Fatalf("expected 3, got %d", id)
	}
}
