package cmd

import (
	"encoding/json"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/config"
	"github.com/lambdaily/dreambooth/pkg/registry"
	"github.com/lambdaily/dreambooth/pkg/settings"
)

var (
	createResolution int
	createV2         bool
	createSrc        string
	createScheduler  string
)

var createCmd = &cobra.Command{
	Use:   "create [model]",
	Short: "Create a new training config from defaults",
	Long:  `Create a new training configuration for a model, from defaults plus any overrides, and save it to the models directory`,
	Args:  cobra.ExactArgs(1),
	Run:   runCreate,
}

func init() {
	createCmd.Flags().IntVar(&createResolution, "resolution", 0, "max input resolution")
	createCmd.Flags().BoolVar(&createV2, "v2", false, "base model is a V2 checkpoint")
	createCmd.Flags().StringVar(&createSrc, "src", "", "source checkpoint")
	createCmd.Flags().StringVar(&createScheduler, "scheduler", "", "inference scheduler name")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	logger := newLogger()

	s, err := loadSettings()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	opts := []config.Option{}
	if createResolution != 0 {
		opts = append(opts, config.WithResolution(createResolution))
	}
	if cmd.Flags().Changed("v2") {
		opts = append(opts, config.WithV2(createV2))
	}
	if createSrc != "" {
		opts = append(opts, config.WithSrc(createSrc))
	}
	if createScheduler != "" {
		opts = append(opts, config.WithScheduler(createScheduler))
	}

	cfg, err := config.New(args[0], opts...)
	if err != nil {
		color.Red("Failed to create config: %v", err)
		os.Exit(1)
	}

	if err := cfg.Save(false); err != nil {
		color.Red("Failed to save config: %v", err)
		os.Exit(1)
	}
	logger.Infof("Saved config for %s to %s", cfg.ModelName, cfg.ModelDir)

	saveToRegistry(logger, s, cfg)
}

// saveToRegistry mirrors a saved config into the revision registry when the
// database is enabled. Registry failures never fail the save.
func saveToRegistry(logger *logrus.Logger, s *settings.Settings, cfg *config.TrainingConfig) {
	if !s.Database.Enabled {
		return
	}
	db, err := registry.New(&s.Database)
	if err != nil {
		logger.Warnf("Registry unavailable: %v", err)
		return
	}
	defer db.Close()

	payload, err := json.Marshal(cfg)
	if err != nil {
		logger.Warnf("Failed to encode config for registry: %v", err)
		return
	}
	if err := db.RecordRevision(cfg.ModelName, cfg.Revision, payload); err != nil {
		logger.Warnf("Failed to record revision: %v", err)
	}
}
