// settings.go - Persisted user settings for the command-line front end

package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSettingsPath returns ~/.config/rxscan/settings.json
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "rxscan-settings.json"
	}
	return filepath.Join(dir, "rxscan", "settings.json")
}

// LoadSettings reads the saved overrides. A missing file yields an empty
// ProviderConfig so environment defaults apply.
func LoadSettings(path string) (ProviderConfig, error) {
	var p ProviderConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return p, nil
}

// SaveSettings writes the overrides with owner-only permissions
func SaveSettings(path string, p ProviderConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
