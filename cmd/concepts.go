package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/config"
)

var conceptsRequired int

var conceptsCmd = &cobra.Command{
	Use:   "concepts [model]",
	Short: "List a model's reconciled training concepts",
	Long: `List the training concepts for a model after reconciliation: invalid
concepts dropped, class directories assigned, and the list padded or
truncated to --required entries when given`,
	Args: cobra.ExactArgs(1),
	Run:  runConcepts,
}

func init() {
	conceptsCmd.Flags().IntVar(&conceptsRequired, "required", -1, "pad or truncate to exactly this many concepts")
	rootCmd.AddCommand(conceptsCmd)
}

func runConcepts(cmd *cobra.Command, args []string) {
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

	concepts := cfg.Concepts(conceptsRequired)
	if len(concepts) == 0 {
		color.Yellow("[INF] No concepts configured for %s.", cfg.ModelName)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tINSTANCE DATA\tCLASS DATA\tINSTANCE PROMPT\tVALID")
	for i, concept := range concepts {
		instanceDir := concept.InstanceDataDir
		if instanceDir == "" {
			instanceDir = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\n", i, instanceDir, concept.ClassDataDir, concept.InstancePrompt, concept.IsValid())
	}
	w.Flush()
}
