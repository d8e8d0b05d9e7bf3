package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server hosts one application instance on a TCP listener. Binding and
// serving are split so a supervisor can bind the port once and hand the
// listener to worker processes.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func New(handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Listen binds the TCP address the server will accept connections on.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Run serves on the provided listener until the context is cancelled, then
// shuts down gracefully within gracefulTimeout. In-flight requests get the
// full timeout to finish; idle connections are closed immediately.
func (s *Server) Run(ctx context.Context, ln net.Listener, gracefulTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	s.logger.Info("server accepting connections", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("graceful_timeout", gracefulTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown expired, closing", zap.Error(err))
		s.httpServer.Close()
	}

	return <-errCh
}
