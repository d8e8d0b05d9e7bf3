package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/cv-agent/internal/logger"
	"github.com/spigell/cv-agent/internal/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const promptExit = "exit"

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse stored CV analyses interactively",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("host", "http://localhost:5000", "base URL of a running cv-agent instance")
	reviewCmd.Flags().Duration("timeout", 10*time.Second, "request timeout")
}

func review(cmd *cobra.Command) {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	host, _ := cmd.Flags().GetString("host")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	client := &http.Client{Timeout: timeout}

	for {
		analyses, err := fetchAnalyses(client, host)
		if err != nil {
			zl.Fatal("fetching analyses", zap.Error(err))
		}

		if len(analyses) == 0 {
			zl.Info("exiting", zap.String("reason", "no analyses stored"))
			return
		}

		items := make([]string, 0, len(analyses)+1)
		for _, a := range analyses {
			label := fmt.Sprintf("%s %s / %s", a.ID, a.Name, a.Status)
			if a.Review != nil {
				label = fmt.Sprintf("%s / score %.0f", label, a.Review.Score)
			}
			items = append(items, label)
		}

		prompt := promptui.Select{
			Label: "Choose an analysis and press ENTER",
			Items: append(items, promptExit),
		}

		_, selected, err := prompt.Run()
		if err != nil {
			zl.Fatal("exiting", zap.Error(err))
		}

		if selected == promptExit {
			return
		}

		id := strings.Split(selected, " ")[0]
		for _, a := range analyses {
			if a.ID != id {
				continue
			}

			pretty, _ := json.MarshalIndent(a, "", "  ")
			fmt.Println(string(pretty))
		}
	}
}

func fetchAnalyses(client *http.Client, host string) ([]*store.Analysis, error) {
	url := strings.TrimSuffix(host, "/") + "/analyses"

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var analyses []*store.Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analyses); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}

	return analyses, nil
}
