package soundpack

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// SupportedExtensions lists the audio extensions tried, in priority order,
// when a sound path is given without one
var SupportedExtensions = []string{".ogg", ".mp3", ".wav", ".aiff", ".aif"}

// PathMapper defines how to map relative sound paths to candidate absolute paths
type PathMapper interface {
	// MapPath converts a relative sound path to candidate absolute paths
	MapPath(relativePath string) ([]string, error)
	GetName() string
	GetType() string
}

// SoundpackResolver resolves sound paths using a configurable mapping strategy
type SoundpackResolver interface {
	ResolveSound(relativePath string) (string, error)
	ResolveSoundWithFallback(paths []string) (string, error)
	GetName() string
	GetType() string
}

// UnifiedSoundpackResolver implements SoundpackResolver using any PathMapper
type UnifiedSoundpackResolver struct {
	fs     afero.Fs
	mapper PathMapper
}

// NewSoundpackResolver creates a resolver that checks candidates on fs
func NewSoundpackResolver(fs afero.Fs, mapper PathMapper) SoundpackResolver {
	slog.Debug("creating unified soundpack resolver",
		"mapper_name", mapper.GetName(),
		"mapper_type", mapper.GetType())

	return &UnifiedSoundpackResolver{
		fs:     fs,
		mapper: mapper,
	}
}

// ResolveSound resolves a single sound path using the configured mapper.
// Candidates without an audio extension are tried with each supported one.
func (u *UnifiedSoundpackResolver) ResolveSound(relativePath string) (string, error) {
	if relativePath == "" {
		err := fmt.Errorf("sound path cannot be empty")
		slog.Error("resolve sound failed", "error", err)
		return "", err
	}

	candidates, err := u.mapper.MapPath(relativePath)
	if err != nil {
		slog.Error("path mapping failed", "relative_path", relativePath, "error", err)
		return "", fmt.Errorf("path mapping failed: %w", err)
	}

	var checked []string
	for _, candidate := range candidates {
		for _, path := range withExtensions(candidate) {
			checked = append(checked, path)
			if info, err := u.fs.Stat(path); err == nil && !info.IsDir() {
				slog.Debug("sound path resolved",
					"relative_path", relativePath,
					"resolved_path", path,
					"mapper_type", u.mapper.GetType())
				return path, nil
			}
		}
	}

	slog.Warn("sound path not resolved",
		"relative_path", relativePath,
		"candidates_checked", len(checked),
		"mapper_type", u.mapper.GetType())

	return "", &FileNotFoundError{
		SoundPath: relativePath,
		Paths:     checked,
	}
}

// ResolveSoundWithFallback tries multiple sound paths in order until one is found
func (u *UnifiedSoundpackResolver) ResolveSoundWithFallback(paths []string) (string, error) {
	if len(paths) == 0 {
		err := fmt.Errorf("no fallback paths provided")
		slog.Error("fallback resolution failed", "error", err)
		return "", err
	}

	var lastErr error
	for i, path := range paths {
		resolved, err := u.ResolveSound(path)
		if err == nil {
			if i > 0 {
				slog.Info("fallback resolution successful",
					"resolved_path", resolved,
					"fallback_index", i)
			}
			return resolved, nil
		}
		lastErr = err
	}

	slog.Warn("all fallback paths failed", "paths_tried", len(paths))
	return "", lastErr
}

// GetName returns the name of the underlying mapper
func (u *UnifiedSoundpackResolver) GetName() string {
	return u.mapper.GetName()
}

// GetType returns the type of the underlying mapper
func (u *UnifiedSoundpackResolver) GetType() string {
	return u.mapper.GetType()
}

// withExtensions returns path itself when it already names an audio file,
// otherwise path with each supported extension appended
func withExtensions(path string) []string {
	if HasAudioExtension(path) {
		return []string{path}
	}
	paths := make([]string, 0, len(SupportedExtensions))
	for _, ext := range SupportedExtensions {
		paths = append(paths, path+ext)
	}
	return paths
}

// HasAudioExtension reports whether path ends in a supported audio extension
func HasAudioExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// FileNotFoundError represents a sound file not found error
type FileNotFoundError struct {
	SoundPath string
	Paths     []string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("sound file not found: %s (searched in: %s)", e.SoundPath, strings.Join(e.Paths, ", "))
}

// IsFileNotFoundError checks if an error is, or wraps, a FileNotFoundError
func IsFileNotFoundError(err error) bool {
	var notFound *FileNotFoundError
	return errors.As(err, &notFound)
}
