package config

import (
	"os"
	"path/filepath"
	"runtime"
)

var modelsPathOverride string

// SetDefaultModelsPath overrides the models root for the process, typically
// from the tool settings file.
func SetDefaultModelsPath(path string) {
	modelsPathOverride = path
}

// DefaultModelsPath returns the root directory model configs are stored
// under.
//
// windows: C:\Users\{user}\AppData\Roaming\dreambooth\models
// macOS: ~/Library/Application Support/dreambooth/models
// linux: ~/.local/share/dreambooth/models
func DefaultModelsPath() string {
	if modelsPathOverride != "" {
		return modelsPathOverride
	}

	var dataDir string
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join("models", "dreambooth")
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		dataDir = filepath.Join(appData, "dreambooth")

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("models", "dreambooth")
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "dreambooth")

	default:
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join("models", "dreambooth")
			}
			xdgData = filepath.Join(home, ".local", "share")
		}
		dataDir = filepath.Join(xdgData, "dreambooth")
	}

	return filepath.Join(dataDir, "models")
}
