package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/config"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [model]",
	Short: "Show a model's training config",
	Long:  `Load a model's training configuration (applying migrations) and print it grouped by section, or as raw JSON`,
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

func init() {
	showCmd.Flags().BoolVarP(&showJSON, "json", "j", false, "print the raw config JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) {
	logger := newLogger()

	if _, err := loadSettings(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	cfg, err := config.FromFile(args[0])
	if err != nil {
		logger.Errorf("Failed to load config for %s: %v", args[0], err)
		os.Exit(1)
	}

	if showJSON {
		data, err := json.MarshalIndent(cfg, "", "    ")
		if err != nil {
			color.Red("Failed to encode config: %v", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, group := range config.Groups() {
		fmt.Fprintln(w, color.CyanString(group))
		for _, field := range config.FieldsInGroup(group) {
			value, ok := cfg.Get(field.Key)
			if !ok {
				continue
			}
			display := fmt.Sprintf("%v", value)
			if value == nil {
				display = "-"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", field.Title, field.Key, display)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
