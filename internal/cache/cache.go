// Package cache decodes audio sources once and shares the result.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/source"
	"github.com/gopxl/beep"
	"golang.org/x/sync/singleflight"
)

// ErrDecode marks sources whose bytes could not be decoded as audio
var ErrDecode = errors.New("failed to decode audio source")

// DecodeError reports a source whose bytes are not playable audio
type DecodeError struct {
	Source string
	Format string // detected decoder, empty when none matched
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("decode %s as %s: %v", e.Source, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrDecode so callers can test the category without unpacking
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// BufferCache maps source ids to decoded buffers. Concurrent loads of the same
// id share one fetch and decode. Failures are never cached.
type BufferCache struct {
	fetcher  source.Fetcher
	registry *audio.DecoderRegistry
	rate     beep.SampleRate

	mu      sync.RWMutex
	buffers map[string]*audio.Buffer
	epoch   uint64

	group   singleflight.Group
	fetches atomic.Int64
}

// New creates a cache that fetches with fetcher and decodes to rate
func New(fetcher source.Fetcher, registry *audio.DecoderRegistry, rate beep.SampleRate) *BufferCache {
	return &BufferCache{
		fetcher:  fetcher,
		registry: registry,
		rate:     rate,
		buffers:  make(map[string]*audio.Buffer),
	}
}

// Get returns a cached buffer without loading
func (c *BufferCache) Get(id string) (*audio.Buffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	buf, ok := c.buffers[id]
	return buf, ok
}

// Load returns the decoded buffer for id, fetching and decoding it on first use.
// ctx bounds only this caller's wait; a load shared with other callers keeps running.
func (c *BufferCache) Load(ctx context.Context, id string) (*audio.Buffer, error) {
	if buf, ok := c.Get(id); ok {
		slog.Debug("buffer cache hit", "source", id)
		return buf, nil
	}

	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), id)
	})

	select {
	case <-ctx.Done():
		return nil, &source.FetchError{Source: id, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*audio.Buffer), nil
	}
}

func (c *BufferCache) load(ctx context.Context, id string) (*audio.Buffer, error) {
	c.mu.RLock()
	epoch := c.epoch
	if buf, ok := c.buffers[id]; ok {
		c.mu.RUnlock()
		return buf, nil
	}
	c.mu.RUnlock()

	c.fetches.Add(1)
	asset, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		slog.Error("audio source fetch failed", "source", id, "error", err)
		return nil, err
	}

	buf, err := c.decode(asset)
	if err != nil {
		slog.Error("audio source decode failed", "source", id, "error", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A Clear during the load means the result belongs to a released engine
	if c.epoch == epoch {
		c.buffers[id] = buf
	}

	slog.Info("audio source loaded",
		"source", id,
		"frames", buf.Len(),
		"duration", buf.Duration())
	return buf, nil
}

func (c *BufferCache) decode(asset *source.Asset) (*audio.Buffer, error) {
	data, format, err := c.registry.Decode(asset.Name, asset.Data)
	if err != nil {
		return nil, &DecodeError{Source: asset.ID, Format: format, Err: err}
	}

	buf, err := audio.NewBuffer(asset.ID, data, c.rate)
	if err != nil {
		return nil, &DecodeError{Source: asset.ID, Format: format, Err: err}
	}
	return buf, nil
}

// Len returns the number of cached buffers
func (c *BufferCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}

// Fetches returns how many times the cache has gone to its fetcher
func (c *BufferCache) Fetches() int64 {
	return c.fetches.Load()
}

// Clear drops every cached buffer. Loads still in flight will not repopulate it.
func (c *BufferCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.buffers)
	c.buffers = make(map[string]*audio.Buffer)
	c.epoch++
	slog.Debug("buffer cache cleared", "released", n)
}
