package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lambdaily/dreambooth/pkg/config"
	"github.com/lambdaily/dreambooth/pkg/elastic"
	"github.com/lambdaily/dreambooth/pkg/registry"
	"github.com/lambdaily/dreambooth/pkg/settings"
)

var (
	settingsFile string
	modelsPath   string
	silent       bool
	verbose      bool
)

var Verbose bool

var rootCmd = &cobra.Command{
	Use:   "dreambooth",
	Short: "manage dreambooth training configurations",
	Long:  `create, inspect, migrate and track dreambooth fine-tuning configuration files`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	for _, arg := range os.Args {
		if arg == "-silent" || arg == "--silent" {
			silent = true
		}
	}

	if !silent {
		printBanner()
	}

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func DebugLog(format string, args ...interface{}) {
	if Verbose {
		fmt.Printf("[DBG] "+format+"\n", args...)
	}
}

func setDebugLogFunctions() {
	config.DebugLog = DebugLog
	settings.DebugLog = DebugLog
	registry.DebugLog = DebugLog
	elastic.DebugLog = DebugLog
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelText string
	switch entry.Level {
	case logrus.InfoLevel:
		levelText = "[INF]"
	case logrus.WarnLevel:
		levelText = "[WARN]"
	case logrus.ErrorLevel:
		levelText = "[ERR]"
	case logrus.DebugLevel:
		levelText = "[DBG]"
	default:
		levelText = "[???]"
	}
	return []byte(fmt.Sprintf("%s %s\n", levelText, entry.Message)), nil
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&customFormatter{})
	return logger
}

// loadSettings reads the tool settings and points the config package at the
// resolved models path. The --models-path flag wins over the settings file.
func loadSettings() (*settings.Settings, error) {
	Verbose = verbose
	if verbose {
		setDebugLogFunctions()
	}

	manager := settings.NewManager(settingsFile)
	if err := manager.Load(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	s := manager.Get()

	if modelsPath != "" {
		config.SetDefaultModelsPath(modelsPath)
	} else if resolved := s.ResolvedModelsPath(); resolved != "" {
		config.SetDefaultModelsPath(resolved)
	}
	return s, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsFile, "config", "c", "", "settings file path (default: settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&modelsPath, "models-path", "", "override the models directory")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "silent mode - no banner or extra output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug output")

	rootCmd.AddCommand(versionCmd)
}

func printBanner() {
	banner := color.CyanString(`
┌┬┐┬─┐┌─┐┌─┐┌┬┐┌┐ ┌─┐┌─┐┌┬┐┬ ┬
 ││├┬┘├┤ ├─┤│││├┴┐│ ││ │ │ ├─┤
─┴┘┴└─└─┘┴ ┴┴ ┴└─┘└─┘└─┘ ┴ ┴ ┴
`)
	info := color.HiBlackString("dreambooth fine-tuning configuration manager")
	fmt.Println(banner)
	fmt.Println(info)
	fmt.Println()
}
