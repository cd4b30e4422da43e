package config

import (
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// appDir is the directory name used under every XDG base directory
const appDir = "soundscape"

// XDGDirs provides XDG Base Directory compliant paths for soundscape
type XDGDirs struct {
	fs afero.Fs
}

// NewXDGDirs creates a directory manager on the OS filesystem
func NewXDGDirs() *XDGDirs {
	return NewXDGDirsWithFilesystem(afero.NewOsFs())
}

// NewXDGDirsWithFilesystem creates a directory manager that creates directories on fs
func NewXDGDirsWithFilesystem(fs afero.Fs) *XDGDirs {
	return &XDGDirs{fs: fs}
}

// GetSoundpackPaths returns prioritized paths where soundpacks can be found
// Returns paths in search order: user data dir, then system data dirs
func (x *XDGDirs) GetSoundpackPaths(soundpackID string) []string {
	baseDir := filepath.Join(appDir, "soundpacks")
	if soundpackID != "" {
		baseDir = filepath.Join(baseDir, soundpackID)
	}

	paths := []string{filepath.Join(xdg.DataHome, baseDir)}
	for _, dataDir := range xdg.DataDirs {
		paths = append(paths, filepath.Join(dataDir, baseDir))
	}

	slog.Debug("generated soundpack paths",
		"soundpack_id", soundpackID,
		"total_paths", len(paths),
		"user_path", paths[0])

	return paths
}

// GetCachePath returns the cache directory path for a specific purpose
func (x *XDGDirs) GetCachePath(purpose string) string {
	baseDir := appDir
	if purpose != "" {
		baseDir = filepath.Join(baseDir, purpose)
	}
	return filepath.Join(xdg.CacheHome, baseDir)
}

// GetConfigPaths returns prioritized paths where config files can be found
// Returns paths in search order: user config dir, then system config dirs
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	join := func(dir string) string {
		p := filepath.Join(dir, appDir)
		if filename != "" {
			p = filepath.Join(p, filename)
		}
		return p
	}

	paths := []string{join(xdg.ConfigHome)}
	for _, configDir := range xdg.ConfigDirs {
		paths = append(paths, join(configDir))
	}

	slog.Debug("generated config paths",
		"filename", filename,
		"total_paths", len(paths),
		"user_path", paths[0])

	return paths
}

// CreateCacheDir creates the cache directory for a specific purpose
func (x *XDGDirs) CreateCacheDir(purpose string) error {
	cachePath := x.GetCachePath(purpose)

	if err := x.fs.MkdirAll(cachePath, 0755); err != nil {
		slog.Error("failed to create cache directory", "path", cachePath, "error", err)
		return err
	}

	slog.Debug("cache directory ready", "path", cachePath)
	return nil
}
