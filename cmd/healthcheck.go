package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spigell/cv-agent/internal/probe"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Defaults match the container HEALTHCHECK wiring: one 3-second probe per
// invocation, exit status carries the verdict.
const (
	healthcheckPath    = "/health"
	healthcheckTimeout = 3 * time.Second
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe the local /health endpoint once; exits 0 only on HTTP 200",
	Run: func(cmd *cobra.Command, _ []string) {
		healthcheck(cmd)
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)

	healthcheckCmd.Flags().Duration("timeout", healthcheckTimeout, "probe timeout")
	healthcheckCmd.Flags().String("path", healthcheckPath, "endpoint to probe")
}

func healthcheck(cmd *cobra.Command) {
	cfg, err := getConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unhealthy: %s\n", err)
		os.Exit(1)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	path, _ := cmd.Flags().GetString("path")

	url := probe.LocalEndpoint(cfg.Port, path)

	p := probe.New(timeout, zap.NewNop())
	if err := p.Check(context.Background(), url); err != nil {
		fmt.Fprintf(os.Stderr, "unhealthy: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("healthy: %s\n", url)
}
