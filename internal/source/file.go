package source

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ctoth/soundscape/internal/soundpack"
	"github.com/spf13/afero"
)

// FileFetcher reads sources from a filesystem, resolving ids through a soundpack
type FileFetcher struct {
	fs       afero.Fs
	resolver soundpack.SoundpackResolver
}

// NewFileFetcher creates a fetcher over fs
func NewFileFetcher(fs afero.Fs, resolver soundpack.SoundpackResolver) *FileFetcher {
	return &FileFetcher{fs: fs, resolver: resolver}
}

// Fetch implements Fetcher
func (f *FileFetcher) Fetch(ctx context.Context, id string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: id, Err: err}
	}

	path, err := f.resolver.ResolveSound(id)
	if err != nil {
		return nil, &FetchError{Source: id, Err: err}
	}

	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		slog.Error("failed to read sound file", "source", id, "path", path, "error", err)
		return nil, &FetchError{Source: id, Err: err}
	}

	slog.Debug("sound file read", "source", id, "path", path, "bytes", len(data))
	return &Asset{ID: id, Name: filepath.Base(path), Data: data}, nil
}
