package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spigell/cv-agent/internal/ai"
	"github.com/spigell/cv-agent/internal/ai/gemini"
	"github.com/spigell/cv-agent/internal/app"
	"github.com/spigell/cv-agent/internal/config"
	"github.com/spigell/cv-agent/internal/logger"
	"github.com/spigell/cv-agent/internal/secrets"
	"github.com/spigell/cv-agent/internal/server"
	"github.com/spigell/cv-agent/internal/store"
	"github.com/spigell/cv-agent/internal/supervisor"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cv-agent HTTP service",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("workers", "w", 0, "number of worker processes (default 4, tune to available CPU cores)")
	serveCmd.Flags().Bool("single", false, "serve in-process without forking workers (development)")

	// Internal: set by the supervisor when re-invoking the binary.
	serveCmd.Flags().Bool("worker", false, "")
	serveCmd.Flags().MarkHidden("worker")

	viper.BindPFlag("workers", serveCmd.Flags().Lookup("workers"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := getConfig()
	if err != nil {
		zl.Fatal("getting a config", zap.Error(err))
	}

	workerMode := cmd.Flag("worker").Value.String() == "true" || supervisor.WorkerID() > 0

	if workerMode {
		zl = zl.With(zap.Int("worker_id", supervisor.WorkerID()))

		ln, err := supervisor.InheritedListener()
		if err != nil {
			zl.Fatal("recovering the inherited listener", zap.Error(err))
		}

		runWorker(ctx, cfg, zl, ln)
		return
	}

	zl.Info("starting the cv-agent",
		zap.String("version", version),
		zap.String("environment", cfg.Env),
		zap.String("addr", cfg.Addr()),
		zap.Int("workers", cfg.Workers),
	)

	ln, err := server.Listen(cfg.Addr())
	if err != nil {
		zl.Fatal("binding the service port", zap.Error(err))
	}

	if cmd.Flag("single").Value.String() == "true" {
		runWorker(ctx, cfg, zl, ln)
		return
	}

	sup := supervisor.New(zl, supervisor.Options{
		Workers:         cfg.Workers,
		Args:            workerArgs(),
		GracefulTimeout: cfg.GracefulTimeout,
	})

	if err := sup.Run(ctx, ln); err != nil {
		zl.Fatal("worker pool failed", zap.Error(err))
	}
}

// workerArgs rebuilds the command line for worker processes, forwarding the
// logging and config flags. Environment variables propagate on their own.
func workerArgs() []string {
	args := []string{"serve", "--worker"}

	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}

	if viper.GetBool("debug") {
		args = append(args, "--debug")
	}

	if viper.GetBool("json") {
		args = append(args, "--json")
	}

	return args
}

// runWorker hosts one application instance on the listener: the application
// factory invocation the deployment contract describes.
func runWorker(ctx context.Context, cfg *config.Config, zl *zap.Logger, ln net.Listener) {
	st, err := buildStore(ctx, cfg)
	if err != nil {
		zl.Fatal("building the analysis store", zap.Error(err))
	}
	defer st.Close()

	reviewer, err := buildReviewer(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("building the ai reviewer", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE or ai.gemini.api-key-file in the configuration file"),
		)
	}

	application, err := app.New(cfg, zl, app.Deps{
		Store:    st,
		Reviewer: reviewer,
		Version:  version,
	})
	if err != nil {
		zl.Fatal("building the application", zap.Error(err))
	}

	srv := server.New(application, zl)
	if err := srv.Run(ctx, ln, cfg.GracefulTimeout); err != nil {
		zl.Fatal("serving", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store == nil || cfg.Store.RedisURL == "" {
		return store.NewMemory(), nil
	}

	return store.NewRedis(ctx, cfg.Store.RedisURL, cfg.Store.TTL)
}

// buildReviewer returns nil when AI review is disabled; the pipeline then
// stores analyses unreviewed.
func buildReviewer(ctx context.Context, cfg *config.Config, zl *zap.Logger) (ai.Reviewer, error) {
	if cfg.AI == nil || !cfg.AI.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.AI.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.AI.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithAIFields(zl, "gemini", cfg.AI.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.AI.Gemini.Model, cfg.AI.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewReviewer(generator, genLogger, cfg.AI.Gemini.MaxLogLength), nil
}
