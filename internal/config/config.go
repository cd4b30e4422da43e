package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/ctoth/soundscape/internal/engine"
	"github.com/ctoth/soundscape/internal/output"
)

// ConfigFileName is the file looked up in every XDG config directory
const ConfigFileName = "config.json"

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// Config represents soundscape configuration. Volumes are percentages.
type Config struct {
	MasterVolume     float64            `json:"master_volume"`
	ChannelVolumes   map[string]float64 `json:"channel_volumes,omitempty"`
	CrossfadeSeconds float64            `json:"crossfade_seconds"`
	AudioBackend     string             `json:"audio_backend"`   // auto, malgo, oto, null
	SampleRate       int                `json:"sample_rate"`     // Render rate in Hz
	Soundpack        string             `json:"soundpack"`       // Soundpack name or path
	SoundpackPaths   []string           `json:"soundpack_paths"` // Additional paths to search for soundpacks
	LogLevel         string             `json:"log_level"`       // debug, info, warn, error
	FileLogging      *FileLoggingConfig `json:"file_logging,omitempty"`
	History          *HistoryConfig     `json:"history,omitempty"`
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetSoundpackPaths(soundpackID string) []string
	GetCachePath(purpose string) string
	CreateCacheDir(purpose string) error
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(afero.NewOsFs())
}

// NewConfigManagerWithFilesystem creates a configuration manager on fs
func NewConfigManagerWithFilesystem(fs afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirsWithFilesystem(fs),
		fs:  fs,
	}
}

// NewConfigManagerWithXDG creates a configuration manager with custom directory discovery
func NewConfigManagerWithXDG(fs afero.Fs, xdg XDGInterface) *ConfigManager {
	return &ConfigManager{xdg: xdg, fs: fs}
}

// XDG returns the directory discovery the manager uses
func (cm *ConfigManager) XDG() XDGInterface {
	return cm.xdg
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	channelVolumes := make(map[string]float64, len(engine.AllChannels))
	for _, id := range engine.AllChannels {
		v := engine.DefaultAmbientVolume
		if id == engine.Music {
			v = engine.DefaultMusicVolume
		}
		channelVolumes[string(id)] = math.Round(v * 100)
	}

	defaultConfig := &Config{
		MasterVolume:     engine.DefaultMasterVolume * 100,
		ChannelVolumes:   channelVolumes,
		CrossfadeSeconds: engine.DefaultCrossfade.Seconds(),
		AudioBackend:     output.BackendAuto,
		SampleRate:       int(output.DefaultSampleRate),
		Soundpack:        "default",
		SoundpackPaths:   []string{}, // XDG paths will be used
		LogLevel:         "warn",
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "", // Empty = XDG cache path
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		History: GetDefaultHistoryConfig(),
	}

	slog.Debug("generated default config",
		"master_volume", defaultConfig.MasterVolume,
		"soundpack", defaultConfig.Soundpack,
		"log_level", defaultConfig.LogLevel,
		"audio_backend", defaultConfig.AudioBackend,
		"sample_rate", defaultConfig.SampleRate)

	return defaultConfig
}

// LoadFromFile loads configuration from a specific file. Fields missing from
// the file keep their defaults.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"master_volume", config.MasterVolume,
		"soundpack", config.Soundpack,
		"audio_backend", config.AudioBackend)

	return config, nil
}

// SaveToFile saves configuration to a specific file
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig loads configuration using XDG path discovery
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	configPaths := cm.xdg.GetConfigPaths(ConfigFileName)

	slog.Debug("searching for config file", "paths", configPaths)

	for i, configPath := range configPaths {
		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path_index", i, "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// UserConfigPath returns the highest priority config path, where preferences are saved
func (cm *ConfigManager) UserConfigPath() string {
	return cm.xdg.GetConfigPaths(ConfigFileName)[0]
}

// ValidateConfig checks every field and reports all problems at once
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errors []string

	if config.MasterVolume < 0 || config.MasterVolume > 100 {
		errors = append(errors, fmt.Sprintf("master_volume must be between 0 and 100, got %g", config.MasterVolume))
	}

	// sorted so the message is stable
	names := make([]string, 0, len(config.ChannelVolumes))
	for name := range config.ChannelVolumes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := engine.ParseChannelID(name); err != nil {
			errors = append(errors, fmt.Sprintf("channel_volumes: unknown channel '%s'", name))
			continue
		}
		if v := config.ChannelVolumes[name]; v < 0 || v > 100 {
			errors = append(errors, fmt.Sprintf("channel_volumes: %s must be between 0 and 100, got %g", name, v))
		}
	}

	if config.CrossfadeSeconds < 0 {
		errors = append(errors, fmt.Sprintf("crossfade_seconds must be >= 0, got %g", config.CrossfadeSeconds))
	}

	if config.SampleRate != 0 && (config.SampleRate < 8000 || config.SampleRate > 192000) {
		errors = append(errors, fmt.Sprintf("sample_rate must be between 8000 and 192000, got %d", config.SampleRate))
	}

	if config.Soundpack == "" {
		errors = append(errors, "soundpack cannot be empty")
	}

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if !cm.IsValidAudioBackend(config.AudioBackend) {
		errors = append(errors, fmt.Sprintf("invalid audio backend '%s', must be one of: %s",
			config.AudioBackend, strings.Join(cm.GetSupportedAudioBackends(), ", ")))
	}

	if fileLogging := config.FileLogging; fileLogging != nil {
		if fileLogging.MaxSizeMB < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fileLogging.MaxSizeMB))
		}
		if fileLogging.MaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fileLogging.MaxBackups))
		}
		if fileLogging.MaxAgeDays < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fileLogging.MaxAgeDays))
		}
	}

	if len(errors) > 0 {
		errMsg := strings.Join(errors, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	slog.Debug("config validation passed")
	return nil
}

// ApplyEnvironmentOverrides applies SOUNDSCAPE_* environment variables to a copy of config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config

	if volStr := os.Getenv("SOUNDSCAPE_MASTER_VOLUME"); volStr != "" {
		if vol, err := strconv.ParseFloat(volStr, 64); err == nil && vol >= 0 && vol <= 100 {
			result.MasterVolume = vol
			slog.Debug("applied master volume override from environment", "value", vol)
		} else {
			slog.Warn("invalid SOUNDSCAPE_MASTER_VOLUME environment variable", "value", volStr)
		}
	}

	if soundpack := os.Getenv("SOUNDSCAPE_SOUNDPACK"); soundpack != "" {
		result.Soundpack = soundpack
		slog.Debug("applied soundpack override from environment", "value", soundpack)
	}

	if logLevel := os.Getenv("SOUNDSCAPE_LOG_LEVEL"); logLevel != "" {
		if _, err := ParseLogLevel(logLevel); err == nil {
			result.LogLevel = strings.ToLower(logLevel)
			slog.Debug("applied log level override from environment", "value", logLevel)
		} else {
			slog.Warn("invalid SOUNDSCAPE_LOG_LEVEL environment variable", "value", logLevel)
		}
	}

	if audioBackend := os.Getenv("SOUNDSCAPE_BACKEND"); audioBackend != "" {
		if cm.IsValidAudioBackend(audioBackend) {
			result.AudioBackend = audioBackend
			slog.Debug("applied audio backend override from environment", "value", audioBackend)
		} else {
			slog.Warn("invalid SOUNDSCAPE_BACKEND environment variable", "value", audioBackend)
		}
	}

	result.History = ApplyHistoryEnvironmentOverrides(result.History)

	return &result
}

// ParseLogLevel converts a config log level to a slog level
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
}

// ResolveLogFilePath resolves the log file path using XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "soundscape.log")
}

// ResolveSoundpackPaths lists the base directories soundpacks are searched in:
// configured paths first, then the XDG data directories
func (cm *ConfigManager) ResolveSoundpackPaths(config *Config) []string {
	paths := slices.Clone(config.SoundpackPaths)
	return append(paths, cm.xdg.GetSoundpackPaths("")...)
}

// GetSupportedAudioBackends returns a list of all supported audio backend types
func (cm *ConfigManager) GetSupportedAudioBackends() []string {
	return []string{output.BackendAuto, output.BackendMalgo, output.BackendOto, output.BackendNull}
}

// IsValidAudioBackend checks if an audio backend type is supported.
// Empty is valid and means auto.
func (cm *ConfigManager) IsValidAudioBackend(backend string) bool {
	return backend == "" || slices.Contains(cm.GetSupportedAudioBackends(), backend)
}
