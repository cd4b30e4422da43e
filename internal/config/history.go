package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// HistoryConfig controls the playback history database
type HistoryConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"` // Empty = XDG cache path
}

// GetDefaultHistoryConfig returns the default history configuration
func GetDefaultHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Enabled:      true,
		DatabasePath: "",
	}
}

// ApplyHistoryEnvironmentOverrides applies SOUNDSCAPE_HISTORY to a copy of config
func ApplyHistoryEnvironmentOverrides(config *HistoryConfig) *HistoryConfig {
	if config == nil {
		config = GetDefaultHistoryConfig()
	}
	result := *config

	if historyStr := os.Getenv("SOUNDSCAPE_HISTORY"); historyStr != "" {
		if enabled, err := strconv.ParseBool(historyStr); err == nil {
			result.Enabled = enabled
			slog.Debug("applied history override from environment", "value", enabled)
		} else {
			slog.Warn("invalid SOUNDSCAPE_HISTORY environment variable", "value", historyStr, "error", err)
		}
	}

	return &result
}

// ResolveHistoryPath returns the database path, defaulting to the XDG cache directory
func (cm *ConfigManager) ResolveHistoryPath(config *HistoryConfig) string {
	if config != nil && config.DatabasePath != "" {
		return config.DatabasePath
	}
	return filepath.Join(cm.xdg.GetCachePath("history"), "history.db")
}
