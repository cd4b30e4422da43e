package soundpack

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// JSONSoundpackFile is the on-disk form of a JSON soundpack
type JSONSoundpackFile struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Version     string            `json:"version,omitempty"`
	Mappings    map[string]string `json:"mappings"`
}

// JSONMapper maps relative paths to absolute paths defined in a JSON mapping
type JSONMapper struct {
	name    string
	mapping map[string]string
}

// NewJSONMapper creates a new JSON-based path mapper
func NewJSONMapper(name string, mapping map[string]string) PathMapper {
	slog.Debug("creating JSON mapper",
		"name", name,
		"mapping_keys_count", len(mapping))

	return &JSONMapper{
		name:    name,
		mapping: mapping,
	}
}

// MapPath looks the relative path up in the mapping. Unmapped paths yield no candidates.
func (j *JSONMapper) MapPath(relativePath string) ([]string, error) {
	if relativePath == "" {
		return []string{}, nil
	}

	if absolutePath, exists := j.mapping[relativePath]; exists {
		return []string{absolutePath}, nil
	}

	slog.Debug("JSON mapping not found",
		"relative_path", relativePath,
		"mapper_name", j.name)
	return []string{}, nil
}

// GetName returns the name of this JSON mapper
func (j *JSONMapper) GetName() string {
	return j.name
}

// GetType returns the type identifier for JSON mappers
func (j *JSONMapper) GetType() string {
	return "json"
}

// LoadJSONSoundpack reads a JSON soundpack from path. Relative mapping targets
// are taken relative to the directory holding the JSON file.
func LoadJSONSoundpack(fs afero.Fs, path string) (PathMapper, error) {
	slog.Debug("loading JSON soundpack", "path", path)

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read soundpack file: %w", err)
	}

	return LoadJSONSoundpackFromBytes(fs, data, filepath.Dir(path))
}

// LoadJSONSoundpackFromBytes parses and validates a JSON soundpack. Every mapped
// file must exist on fs.
func LoadJSONSoundpackFromBytes(fs afero.Fs, data []byte, baseDir string) (PathMapper, error) {
	var spFile JSONSoundpackFile
	if err := json.Unmarshal(data, &spFile); err != nil {
		slog.Error("invalid JSON soundpack", "error", err)
		return nil, fmt.Errorf("failed to parse soundpack JSON: %w", err)
	}

	if spFile.Name == "" {
		return nil, fmt.Errorf("soundpack name cannot be empty")
	}
	if len(spFile.Mappings) == 0 {
		return nil, fmt.Errorf("soundpack %s has no mappings", spFile.Name)
	}

	mapping := make(map[string]string, len(spFile.Mappings))
	var missing []string
	for key, target := range spFile.Mappings {
		if !filepath.IsAbs(target) && baseDir != "" {
			target = filepath.Join(baseDir, filepath.FromSlash(target))
		}
		if _, err := fs.Stat(target); err != nil {
			missing = append(missing, target)
			continue
		}
		mapping[key] = target
	}

	if len(missing) > 0 {
		slog.Error("soundpack references missing files",
			"name", spFile.Name,
			"missing", missing)
		return nil, fmt.Errorf("soundpack %s references %d missing files: %v", spFile.Name, len(missing), missing)
	}

	slog.Info("JSON soundpack loaded",
		"name", spFile.Name,
		"version", spFile.Version,
		"mappings", len(mapping))

	return NewJSONMapper(spFile.Name, mapping), nil
}
