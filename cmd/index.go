package cmd

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/config"
	"github.com/lambdaily/dreambooth/pkg/elastic"
)

var indexCmd = &cobra.Command{
	Use:   "index [model]",
	Short: "Index config snapshots into Elasticsearch",
	Long:  `Push a model's current config and all backup snapshots into the configured Elasticsearch index for cross-model search`,
	Args:  cobra.ExactArgs(1),
	Run:   runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	logger := newLogger()

	s, err := loadSettings()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	if !s.Elastic.Enabled {
		color.Red("Error: Elasticsearch is not enabled. Please enable it in settings.yaml")
		os.Exit(1)
	}

	cfg, err := config.FromFile(args[0])
	if err != nil {
		logger.Errorf("Failed to load config for %s: %v", args[0], err)
		os.Exit(1)
	}

	client, err := elastic.New(elastic.Config{
		URL:      s.Elastic.URL,
		Username: s.Elastic.Username,
		Password: s.Elastic.Password,
		Index:    s.Elastic.Index,
	})
	if err != nil {
		color.Red("Failed to connect to elasticsearch: %v", err)
		os.Exit(1)
	}

	indexed, err := client.IndexModelSnapshots(context.Background(), cfg.ModelName, cfg.ModelDir)
	if err != nil {
		color.Red("Failed to index snapshots: %v", err)
		os.Exit(1)
	}
	logger.Infof("Indexed %d snapshot(s) for %s", indexed, cfg.ModelName)
}
