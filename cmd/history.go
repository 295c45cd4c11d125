package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/registry"
)

var historyAll bool

var historyCmd = &cobra.Command{
	Use:   "history [model]",
	Short: "Query the config revision registry",
	Long:  `Query the revision registry for a specific model or all models`,
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "query all models")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	if !historyAll && len(args) == 0 {
		color.Red("Error: either provide a model name or use --all flag")
		cmd.Help()
		os.Exit(1)
	}

	if historyAll && len(args) > 0 {
		color.Red("Error: cannot use both a model name and --all flag together")
		cmd.Help()
		os.Exit(1)
	}

	s, err := loadSettings()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	db, err := registry.New(&s.Database)
	if err != nil {
		color.Red("Failed to connect to registry: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if !db.IsEnabled() {
		color.Red("Error: Database is not enabled. Please enable it in settings.yaml")
		os.Exit(1)
	}

	var records []registry.RevisionRecord
	if historyAll {
		records, err = db.QueryAllRevisions()
	} else {
		records, err = db.QueryRevisions(args[0])
	}
	if err != nil {
		color.Red("Failed to query registry: %v", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		color.Yellow("[INF] No recorded revisions.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tREVISION\tSAVED AT")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.ModelName, r.Revision, r.SavedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
