package supervisor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spigell/cv-agent/internal/util"
	"go.uber.org/zap"
)

const (
	// restartDelay throttles respawning of a crashing worker so a broken
	// configuration does not turn into a fork loop.
	restartDelay = time.Second
)

// Options configures the worker pool.
type Options struct {
	// Workers is the number of worker processes to keep running.
	Workers int
	// Args are passed to each worker process (the serve command in worker
	// mode). The executable itself is re-invoked.
	Args []string
	// GracefulTimeout bounds how long workers get to finish in-flight
	// requests after a shutdown signal.
	GracefulTimeout time.Duration
}

// Supervisor implements the pre-fork process model: it owns the TCP listener
// and keeps a fixed pool of worker processes serving on it. Workers inherit
// the listener as a file descriptor, so the port is bound exactly once.
type Supervisor struct {
	opts   Options
	logger *zap.Logger
}

type workerExit struct {
	id  int
	err error
}

func New(logger *zap.Logger, opts Options) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Workers < 1 {
		opts.Workers = 1
	}

	if opts.GracefulTimeout <= 0 {
		opts.GracefulTimeout = 30 * time.Second
	}

	return &Supervisor{opts: opts, logger: logger}
}

// Run forks the worker pool and supervises it until the context is
// cancelled. Workers that exit unexpectedly are replaced; the supervisor
// itself never serves requests.
func (s *Supervisor) Run(ctx context.Context, ln net.Listener) error {
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return fmt.Errorf("supervisor requires a TCP listener, got %T", ln)
	}

	lnFile, err := tcpLn.File()
	if err != nil {
		return fmt.Errorf("duplicate listener descriptor: %w", err)
	}
	defer lnFile.Close()

	exits := make(chan workerExit, s.opts.Workers)
	workers := make(map[int]*exec.Cmd, s.opts.Workers)

	for id := 1; id <= s.opts.Workers; id++ {
		cmd, err := s.spawn(id, lnFile, exits)
		if err != nil {
			s.terminate(workers)
			return err
		}
		workers[id] = cmd
	}

	s.logger.Info("worker pool started",
		zap.Int("workers", s.opts.Workers),
		zap.String("addr", ln.Addr().String()),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping worker pool")
			s.terminate(workers)
			s.waitAll(workers, exits)
			return nil

		case exit := <-exits:
			delete(workers, exit.id)

			s.logger.Warn("worker exited unexpectedly",
				zap.Int("worker_id", exit.id),
				zap.Error(exit.err),
			)

			if err := util.WaitFor(ctx, restartDelay); err != nil {
				continue // shutdown in progress, handled above
			}

			cmd, err := s.spawn(exit.id, lnFile, exits)
			if err != nil {
				s.logger.Error("respawning worker failed",
					zap.Int("worker_id", exit.id),
					zap.Error(err),
				)
				continue
			}
			workers[exit.id] = cmd
		}
	}
}

func (s *Supervisor) spawn(id int, lnFile *os.File, exits chan<- workerExit) (*exec.Cmd, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.Command(executable, s.opts.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{lnFile}
	cmd.Env = WorkerEnv(os.Environ(), id)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", id, err)
	}

	s.logger.Info("worker started",
		zap.Int("worker_id", id),
		zap.Int("pid", cmd.Process.Pid),
	)

	go func() {
		exits <- workerExit{id: id, err: cmd.Wait()}
	}()

	return cmd, nil
}

// terminate asks every worker to shut down gracefully.
func (s *Supervisor) terminate(workers map[int]*exec.Cmd) {
	for id, cmd := range workers {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			s.logger.Warn("signaling worker", zap.Int("worker_id", id), zap.Error(err))
		}
	}
}

// waitAll collects worker exits until all are gone or the graceful timeout
// expires, then kills the stragglers.
func (s *Supervisor) waitAll(workers map[int]*exec.Cmd, exits <-chan workerExit) {
	deadline := time.After(s.opts.GracefulTimeout)

	for len(workers) > 0 {
		select {
		case exit := <-exits:
			delete(workers, exit.id)
			s.logger.Info("worker stopped", zap.Int("worker_id", exit.id))

		case <-deadline:
			for id, cmd := range workers {
				s.logger.Warn("killing worker after graceful timeout", zap.Int("worker_id", id))
				if cmd.Process != nil {
					cmd.Process.Kill()
				}
				delete(workers, id)
			}
		}
	}
}
