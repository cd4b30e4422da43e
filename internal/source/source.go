// Package source turns source identifiers into encoded audio bytes.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFetch marks every failure to obtain a source's bytes
var ErrFetch = errors.New("failed to fetch audio source")

// FetchError reports which source could not be fetched and why
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches ErrFetch so callers can test the category without unpacking
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Asset is the encoded content of one source
type Asset struct {
	ID   string
	Name string // file name or URL path, used for format detection
	Data []byte
}

// Fetcher retrieves the encoded bytes of a source
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Asset, error)
}

// Router sends URL sources to the HTTP fetcher and everything else to the file fetcher
type Router struct {
	Files Fetcher
	HTTP  Fetcher
}

// Fetch implements Fetcher
func (r *Router) Fetch(ctx context.Context, id string) (*Asset, error) {
	if IsURL(id) {
		if r.HTTP == nil {
			return nil, &FetchError{Source: id, Err: errors.New("remote sources are disabled")}
		}
		return r.HTTP.Fetch(ctx, id)
	}
	if r.Files == nil {
		return nil, &FetchError{Source: id, Err: errors.New("no file source configured")}
	}
	return r.Files.Fetch(ctx, id)
}

// IsURL reports whether id names an http or https resource
func IsURL(id string) bool {
	lower := strings.ToLower(id)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
