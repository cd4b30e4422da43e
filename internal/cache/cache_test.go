package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavBytes builds a mono 16-bit WAV of n frames at rate
func wavBytes(rate, n int) []byte {
	data := new(bytes.Buffer)
	for i := 0; i < n; i++ {
		binary.Write(data, binary.LittleEndian, int16(8192))
	}
	b := new(bytes.Buffer)
	b.WriteString("RIFF")
	binary.Write(b, binary.LittleEndian, uint32(36+data.Len()))
	b.WriteString("WAVEfmt ")
	binary.Write(b, binary.LittleEndian, uint32(16))
	binary.Write(b, binary.LittleEndian, uint16(1))
	binary.Write(b, binary.LittleEndian, uint16(1))
	binary.Write(b, binary.LittleEndian, uint32(rate))
	binary.Write(b, binary.LittleEndian, uint32(rate*2))
	binary.Write(b, binary.LittleEndian, uint16(2))
	binary.Write(b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(b, binary.LittleEndian, uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}

type fakeFetcher struct {
	mu      sync.Mutex
	assets  map[string][]byte
	calls   map[string]int
	release chan struct{}
	entered chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		assets: map[string][]byte{
			"audio/rain.wav": wavBytes(1000, 100),
			"audio/junk.wav": []byte("definitely not audio"),
		},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (*source.Asset, error) {
	f.mu.Lock()
	f.calls[id]++
	data, ok := f.assets[id]
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if !ok {
		return nil, &source.FetchError{Source: id, Err: errors.New("404 not found")}
	}
	return &source.Asset{ID: id, Name: id, Data: data}, nil
}

func (f *fakeFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func newCache(f source.Fetcher) *BufferCache {
	return New(f, audio.NewDefaultRegistry(), 1000)
}

func TestLoadCachesBuffer(t *testing.T) {
	fetcher := newFakeFetcher()
	c := newCache(fetcher)

	first, err := c.Load(context.Background(), "audio/rain.wav")
	require.NoError(t, err)
	assert.Equal(t, 100, first.Len())

	second, err := c.Load(context.Background(), "audio/rain.wav")
	require.NoError(t, err)
	assert.Same(t, first, second, "cache hit must return the same buffer")
	assert.Equal(t, 1, fetcher.count("audio/rain.wav"), "cache hit must not re-fetch")
	assert.Equal(t, 1, c.Len())
}

func TestLoadFetchErrorNotCached(t *testing.T) {
	fetcher := newFakeFetcher()
	c := newCache(fetcher)

	_, err := c.Load(context.Background(), "audio/missing.ogg")
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFetch)
	assert.NotErrorIs(t, err, ErrDecode)

	_, err = c.Load(context.Background(), "audio/missing.ogg")
	require.Error(t, err)
	assert.Equal(t, 2, fetcher.count("audio/missing.ogg"), "failures must not be cached")
	assert.Equal(t, 0, c.Len())
}

func TestLoadDecodeError(t *testing.T) {
	fetcher := newFakeFetcher()
	c := newCache(fetcher)

	_, err := c.Load(context.Background(), "audio/junk.wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "audio/junk.wav", decodeErr.Source)
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.release = make(chan struct{})
	c := newCache(fetcher)

	const loaders = 8
	results := make([]*audio.Buffer, loaders)
	var wg sync.WaitGroup
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buf, err := c.Load(context.Background(), "audio/rain.wav")
			assert.NoError(t, err)
			results[i] = buf
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, 1, fetcher.count("audio/rain.wav"))
	for _, buf := range results {
		assert.Same(t, results[0], buf)
	}
}

func TestLoadHonoursCallerContext(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.release = make(chan struct{})
	fetcher.entered = make(chan struct{}, 1)
	c := newCache(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, "audio/rain.wav")
		errCh <- err
	}()

	<-fetcher.entered
	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, source.ErrFetch)

	close(fetcher.release)
}

func TestClearDuringLoadDoesNotRepopulate(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.release = make(chan struct{})
	fetcher.entered = make(chan struct{}, 1)
	c := newCache(fetcher)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Load(context.Background(), "audio/rain.wav")
		assert.NoError(t, err)
	}()

	<-fetcher.entered
	c.Clear()
	close(fetcher.release)
	<-done

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("audio/rain.wav")
	assert.False(t, ok)
}
