package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var DebugLog func(string, ...interface{})

// Settings is the tool-level configuration, read from settings.yaml. Model
// configs themselves live as JSON under the models path; this file only
// points at them and configures the optional backends.
type Settings struct {
	ModelsPath           string   `yaml:"models_path"`
	DreamboothModelsPath string   `yaml:"dreambooth_models_path"`
	Database             Database `yaml:"database"`
	Elastic              Elastic  `yaml:"elastic"`
}

type Database struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Elastic struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

type Manager struct {
	settings     *Settings
	settingsPath string
}

func NewManager(settingsPath string) *Manager {
	return &Manager{
		settingsPath: settingsPath,
	}
}

// Load reads the settings file, falling back to defaults when no file
// exists anywhere on the search path.
func (m *Manager) Load() error {
	if m.settingsPath == "" {
		m.settingsPath = m.findSettingsFile()
	}

	if DebugLog != nil {
		DebugLog("loading settings from %s", m.settingsPath)
	}

	s := &Settings{}
	if _, err := os.Stat(m.settingsPath); os.IsNotExist(err) {
		if DebugLog != nil {
			DebugLog("no settings file found, using defaults")
		}
		m.settings = s
		return nil
	}

	data, err := os.ReadFile(m.settingsPath)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := m.validateSettings(s); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}

	m.settings = s
	return nil
}

func (m *Manager) validateSettings(s *Settings) error {
	if s.Database.Enabled {
		if s.Database.Host == "" {
			return fmt.Errorf("database is enabled but no host is configured")
		}
		if s.Database.Port <= 0 {
			return fmt.Errorf("database port must be greater than 0")
		}
	}

	if s.Elastic.Enabled && s.Elastic.URL == "" {
		return fmt.Errorf("elastic is enabled but no url is configured")
	}

	return nil
}

func (m *Manager) Get() *Settings {
	return m.settings
}

// ResolvedModelsPath resolves the models root: the dreambooth-specific path when
// set, then <models_path>/dreambooth, then empty for the caller's default.
func (s *Settings) ResolvedModelsPath() string {
	if s.DreamboothModelsPath != "" {
		return s.DreamboothModelsPath
	}
	if s.ModelsPath != "" {
		return filepath.Join(s.ModelsPath, "dreambooth")
	}
	return ""
}

func (m *Manager) findSettingsFile() string {
	if _, err := os.Stat("settings.yaml"); err == nil {
		return "settings.yaml"
	}

	if _, err := os.Stat(filepath.Join("config", "settings.yaml")); err == nil {
		return filepath.Join("config", "settings.yaml")
	}

	return filepath.Join(GetConfigDir(), "settings.yaml")
}
