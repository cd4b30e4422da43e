package soundpack

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// CreateSoundpackMapper detects whether path is a JSON soundpack file or a
// soundpack directory and builds the matching mapper
func CreateSoundpackMapper(fs afero.Fs, name, path string) (PathMapper, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("soundpack not found at %s: %w", path, err)
	}

	if info.IsDir() {
		return NewDirectoryMapper(name, []string{path}), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSONSoundpack(fs, path)
	}

	return nil, fmt.Errorf("unsupported soundpack at %s: expected a directory or .json file", path)
}

// CreateSoundpackMapperWithBasePaths tries path first, then falls back to a
// directory mapper that searches name under each base path
func CreateSoundpackMapperWithBasePaths(fs afero.Fs, name, path string, basePaths []string) (PathMapper, error) {
	if path != "" {
		mapper, err := CreateSoundpackMapper(fs, name, path)
		if err == nil {
			return mapper, nil
		}
		slog.Debug("soundpack path unusable, searching base paths", "path", path, "error", err)
	}

	var dirs []string
	for _, base := range basePaths {
		dir := filepath.Join(base, name)
		if info, err := fs.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
		jsonPath := filepath.Join(base, name+".json")
		if _, err := fs.Stat(jsonPath); err == nil {
			return LoadJSONSoundpack(fs, jsonPath)
		}
	}

	if len(dirs) == 0 {
		// Search the base paths themselves so ids such as "audio/rain" still resolve
		slog.Debug("no soundpack directory found, using base paths directly", "name", name)
		return NewDirectoryMapper(name, basePaths), nil
	}

	return NewDirectoryMapper(name, dirs), nil
}
