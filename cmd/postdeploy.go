package cmd

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spigell/cv-agent/internal/logger"
	"github.com/spigell/cv-agent/internal/probe"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// postdeploy verifies a freshly deployed instance: every endpoint must
// answer 200 within the retry budget, otherwise the command exits non-zero
// and the deployment pipeline stops.
var postdeployCmd = &cobra.Command{
	Use:   "postdeploy",
	Short: "Verify a deployed instance by probing its health and readiness endpoints",
	Run: func(cmd *cobra.Command, _ []string) {
		postdeploy(cmd)
	},
}

var postdeployEndpoints = []string{"/health", "/ready"}

func init() {
	rootCmd.AddCommand(postdeployCmd)

	postdeployCmd.Flags().String("host", "http://localhost:5000", "base URL of the deployed application")
	postdeployCmd.Flags().Int("retries", 3, "number of attempts per endpoint")
	postdeployCmd.Flags().Duration("delay", 2*time.Second, "delay between attempts")
	postdeployCmd.Flags().Duration("timeout", 5*time.Second, "per-request timeout")
}

func postdeploy(cmd *cobra.Command) {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	host, _ := cmd.Flags().GetString("host")
	retries, _ := cmd.Flags().GetInt("retries")
	delay, _ := cmd.Flags().GetDuration("delay")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	p := probe.New(timeout, zl)

	allOK := true
	for _, endpoint := range postdeployEndpoints {
		url := probe.Endpoint(host, endpoint)
		if err := p.CheckWithRetries(context.Background(), url, retries, delay); err != nil {
			zl.Error("endpoint failed verification", zap.String("url", url), zap.Error(err))
			allOK = false
		}
	}

	if !allOK {
		zl.Error("deployment verification failed")
		os.Exit(1)
	}

	zl.Info("all endpoints healthy and ready", zap.String("host", host))
}
