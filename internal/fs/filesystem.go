package fs

import (
	"github.com/spf13/afero"
)

// Factory provides filesystem instances for production and testing
type Factory interface {
	// Production returns a filesystem that operates on the real OS filesystem
	Production() afero.Fs
	// Memory returns an in-memory filesystem for testing
	Memory() afero.Fs
	// Sounds returns a read-only view of base for reading audio assets
	Sounds(base afero.Fs) afero.Fs
}

// DefaultFactory provides the standard filesystem factory implementation
type DefaultFactory struct{}

// NewDefaultFactory creates a new filesystem factory
func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

// Production returns a filesystem that operates on the real OS filesystem
func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

// Memory returns an in-memory filesystem for testing
func (f *DefaultFactory) Memory() afero.Fs {
	return afero.NewMemMapFs()
}

// Sounds wraps base so asset loading can never modify it
func (f *DefaultFactory) Sounds(base afero.Fs) afero.Fs {
	return afero.NewReadOnlyFs(base)
}
