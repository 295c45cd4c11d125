package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/config"
)

var setBackup bool

var setCmd = &cobra.Command{
	Use:   "set [model] [key=value]...",
	Short: "Update config values through the migration shim",
	Long: `Apply key=value pairs to a model's training configuration. Keys and values
pass through the same migration table used when loading old configs, so
legacy names work. Values are parsed as JSON, then as plain strings.`,
	Example: `  dreambooth set mymodel num_train_epochs=150 train_lora=true
  dreambooth set mymodel optimizer="8Bit Adam" --backup`,
	Args: cobra.MinimumNArgs(2),
	Run:  runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setBackup, "backup", false, "also write a revision-stamped backup copy")
	rootCmd.AddCommand(setCmd)
}

func parseParams(pairs []string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", pair)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}

// validateChoices rejects string values outside a field's declared choice
// list before anything is written. Keys run through the migration table
// first so a legacy spelling is checked against its current field.
func validateChoices(params map[string]interface{}) error {
	for key, value := range params {
		key = strings.Replace(key, "db_", "", 1)
		key, value = config.ValidateParam(key, value)
		meta := config.FieldByKey(key)
		if meta == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			continue
		}
		if !meta.HasChoice(s) {
			return fmt.Errorf("invalid value %q for %s (choices: %s)", s, key, strings.Join(meta.Choices, ", "))
		}
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) {
	logger := newLogger()

	s, err := loadSettings()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	params, err := parseParams(args[1:])
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	if err := validateChoices(params); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	cfg, err := config.FromFile(args[0])
	if err != nil {
		logger.Errorf("Failed to load config for %s: %v", args[0], err)
		os.Exit(1)
	}

	if err := cfg.LoadParams(params); err != nil {
		color.Red("Failed to apply params: %v", err)
		os.Exit(1)
	}

	if setBackup {
		if err := cfg.Save(true); err != nil {
			color.Red("Failed to write backup: %v", err)
			os.Exit(1)
		}
		cfg.Revision++
	}
	if err := cfg.Save(false); err != nil {
		color.Red("Failed to save config: %v", err)
		os.Exit(1)
	}
	logger.Infof("Updated %d value(s) for %s", len(params), cfg.ModelName)

	saveToRegistry(logger, s, cfg)
}
