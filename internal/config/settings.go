package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "embedding-theatre"

// Settings are persisted between runs in settings.json
type Settings struct {
	BackendURL string `json:"backendUrl,omitempty"`
	LastModel  string `json:"lastModel,omitempty"`
}

// settingsDirOverride lets tests point the settings file at a temp dir
var settingsDirOverride string

// DataStoreDir returns the per-user directory for settings and history
func DataStoreDir() (string, error) {
	if settingsDirOverride != "" {
		return settingsDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func settingsPath() (string, error) {
	dir, err := DataStoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// LoadSettings reads saved settings. A missing file yields empty settings.
func LoadSettings() (*Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return &Settings{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return &Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return &Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes settings to disk, creating the directory if needed
func SaveSettings(settings *Settings) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
