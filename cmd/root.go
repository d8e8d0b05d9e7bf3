package cmd

import (
	"log"

	"github.com/spigell/cv-agent/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "cv-agent"

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "cv-agent is an AI-assisted CV review service",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Environment bindings for the deployment contract. Containers configure the
// service through these variables; the config file is optional.
var envBindings = map[string]string{
	"env":                    "APP_ENV",
	"host":                   "HOST",
	"port":                   "PORT",
	"workers":                "WEB_CONCURRENCY",
	"graceful-timeout":       "GRACEFUL_TIMEOUT",
	"store.redis-url":        "REDIS_URL",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		// An explicitly requested config file must parse.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")

	// Containerized deployments configure everything through the
	// environment; a missing default config file is fine.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal(err)
		}
	}
}

func getConfig() (*config.Config, error) {
	cfg := config.New()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
