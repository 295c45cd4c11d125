package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigFileName is the per-model config file, stored in the model dir.
const ConfigFileName = "db_config.json"

// normalizePathSeps rewrites path separators for the host OS, so a config
// written on Windows loads on Linux and vice versa.
func normalizePathSeps(path string) string {
	if os.PathSeparator == '\\' {
		return strings.ReplaceAll(path, "/", "\\")
	}
	return strings.ReplaceAll(path, "\\", "/")
}

// Save writes the config to <model_dir>/db_config.json. With backup set, it
// instead writes a revision-stamped copy under <model_dir>/backups/.
func (c *TrainingConfig) Save(backup bool) error {
	if c.ModelDir == "" {
		return fmt.Errorf("config has no model directory")
	}
	c.ModelDir = normalizePathSeps(c.ModelDir)
	if DebugLog != nil {
		DebugLog("saving to %s", c.ModelDir)
	}

	configFile := filepath.Join(c.ModelDir, ConfigFileName)
	if backup {
		backupDir := filepath.Join(c.ModelDir, "backups")
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		configFile = filepath.Join(backupDir, fmt.Sprintf("db_config_%d.json", c.Revision))
	} else if err := os.MkdirAll(c.ModelDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// FromFile loads the named model's config from <models_path>/<model_name>/
// db_config.json, applying migrations along the way. File and parse errors
// are logged and reported as a nil config.
func FromFile(modelName string, opts ...Option) (*TrainingConfig, error) {
	if modelName == "" {
		return nil, fmt.Errorf("no model name given")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	modelsPath := o.modelsPath
	if modelsPath == "" {
		modelsPath = DefaultModelsPath()
	}

	configFile := filepath.Join(modelsPath, SanitizeName(modelName), ConfigFileName)
	params, err := readParams(configFile)
	if err != nil {
		logrus.Errorf("exception loading config: %v", err)
		return nil, err
	}

	cfg, err := New(modelName, opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadParams(params); err != nil {
		logrus.Errorf("exception loading config: %v", err)
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile re-reads the config from modelDir, keeping unknown fields at
// their current values.
func (c *TrainingConfig) LoadFromFile(modelDir string) error {
	params, err := readParams(filepath.Join(modelDir, ConfigFileName))
	if err != nil {
		logrus.Errorf("exception loading config: %v", err)
		return err
	}
	return c.LoadParams(params)
}

// Refresh reloads the config from its file on disk.
func (c *TrainingConfig) Refresh() error {
	return c.LoadFromFile(c.ModelDir)
}

func readParams(configFile string) (map[string]interface{}, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var params map[string]interface{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return params, nil
}
