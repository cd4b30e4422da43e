package soundpack

import (
	"log/slog"
	"path/filepath"
)

// DirectoryMapper maps relative paths to candidates under a list of base directories
type DirectoryMapper struct {
	name      string
	basePaths []string
}

// NewDirectoryMapper creates a new directory-based path mapper
func NewDirectoryMapper(name string, basePaths []string) PathMapper {
	slog.Debug("creating directory mapper",
		"name", name,
		"base_paths", basePaths)

	return &DirectoryMapper{
		name:      name,
		basePaths: basePaths,
	}
}

// MapPath joins the relative path onto every base path, in order
func (d *DirectoryMapper) MapPath(relativePath string) ([]string, error) {
	if relativePath == "" {
		return []string{}, nil
	}

	candidates := make([]string, 0, len(d.basePaths))
	for _, basePath := range d.basePaths {
		candidates = append(candidates, filepath.Join(basePath, filepath.FromSlash(relativePath)))
	}
	return candidates, nil
}

// GetName returns the name of this directory mapper
func (d *DirectoryMapper) GetName() string {
	return d.name
}

// GetType returns the type identifier for directory mappers
func (d *DirectoryMapper) GetType() string {
	return "directory"
}

// directMapper tries the wrapped mapper's candidates, then the path as given
type directMapper struct {
	PathMapper
}

// WithDirectPaths wraps m so that absolute and working-directory paths also
// resolve when m has no match
func WithDirectPaths(m PathMapper) PathMapper {
	return &directMapper{PathMapper: m}
}

func (d *directMapper) MapPath(relativePath string) ([]string, error) {
	candidates, err := d.PathMapper.MapPath(relativePath)
	if err != nil {
		return nil, err
	}
	if relativePath == "" {
		return candidates, nil
	}
	return append(candidates, filepath.FromSlash(relativePath)), nil
}
