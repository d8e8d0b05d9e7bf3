package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/cv-agent/internal/util"
	"go.uber.org/zap"
)

// Prober issues liveness/readiness checks against a running instance. A
// check succeeds only when the endpoint answers HTTP 200 within the timeout;
// every other outcome, including connection failures, is unhealthy.
type Prober struct {
	client *http.Client
	logger *zap.Logger
}

func New(timeout time.Duration, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Prober{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Check probes a single URL once.
func (p *Prober) Check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe %s: bad status: %s", url, resp.Status)
	}

	return nil
}

// CheckWithRetries probes a URL, retrying failures with a fixed delay. Used
// by post-deployment verification where the service may still be starting.
func (p *Prober) CheckWithRetries(ctx context.Context, url string, retries int, delay time.Duration) error {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = p.Check(ctx, url)
		if lastErr == nil {
			p.logger.Info("endpoint healthy", zap.String("url", url), zap.Int("attempt", attempt))
			return nil
		}

		p.logger.Warn("probe attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		if attempt < retries {
			if err := util.WaitFor(ctx, delay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("unhealthy after %d attempts: %w", retries, lastErr)
}

// Endpoint builds a probe URL from a base host and a path.
func Endpoint(host, path string) string {
	return strings.TrimSuffix(host, "/") + "/" + strings.TrimPrefix(path, "/")
}

// LocalEndpoint builds the URL the container HEALTHCHECK probes: the
// service's own port on the loopback interface.
func LocalEndpoint(port int, path string) string {
	return Endpoint(fmt.Sprintf("http://127.0.0.1:%d", port), path)
}
