package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/cache"
	"github.com/ctoth/soundscape/internal/engine"
	"github.com/ctoth/soundscape/internal/output"
	"github.com/ctoth/soundscape/internal/soundpack"
	"github.com/ctoth/soundscape/internal/source"
	"github.com/ctoth/soundscape/internal/tracking"
)

const rate = 8000

// rig is a full playback stack: soundpack files on an in-memory filesystem,
// remote tracks behind an httptest server, a manual backend and history in sqlite
type rig struct {
	engine  *engine.Engine
	backend *output.ManualBackend
	cache   *cache.BufferCache
	history *tracking.DBHook
	server  *httptest.Server
	db      *sql.DB
}

func newRig(t *testing.T) *rig {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pack/audio/rain.wav", wav(rate, rate, 8192), 0644))
	require.NoError(t, afero.WriteFile(fs, "/pack/audio/fire.wav", wav(rate, rate, 4096), 0644))

	mux := http.NewServeMux()
	mux.HandleFunc("/tracks/calm.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Write(wav(rate, rate, 12000))
	})
	mux.HandleFunc("/tracks/storm.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Write(wav(rate, rate, -12000))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	resolver := soundpack.NewSoundpackResolver(fs,
		soundpack.WithDirectPaths(soundpack.NewDirectoryMapper("pack", []string{"/pack"})))
	fetcher := &source.Router{
		Files: source.NewFileFetcher(fs, resolver),
		HTTP:  source.NewHTTPFetcher(server.Client()),
	}
	buffers := cache.New(fetcher, audio.NewDefaultRegistry(), rate)

	db, err := tracking.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	history := tracking.NewDBHook(db, "end-to-end")

	backend := output.NewManualBackend(rate)
	e := engine.New(backend, buffers,
		engine.WithCrossfadeDuration(200*time.Millisecond),
		engine.WithHook(history.GetHook()))
	t.Cleanup(func() { e.Dispose() })

	return &rig{engine: e, backend: backend, cache: buffers, history: history, server: server, db: db}
}

func (r *rig) url(name string) string {
	return r.server.URL + "/tracks/" + name
}

func TestPlaybackEndToEnd(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	e := r.engine

	require.NoError(t, e.Preload(ctx, "audio/rain.wav", r.url("calm.wav")))
	assert.Equal(t, 2, r.cache.Len())

	require.NoError(t, e.Initialize(ctx))
	assert.Equal(t, engine.StateReady, e.State())

	require.NoError(t, e.Play(ctx, engine.Music, r.url("calm.wav")))
	require.NoError(t, e.Play(ctx, engine.Rain, "audio/rain.wav"))
	assert.Equal(t, int64(2), r.cache.Fetches(), "preloaded sources should not be fetched again")

	out := r.backend.Advance(50 * time.Millisecond)
	assert.Greater(t, out[0], 0.0, "music and rain are both positive")

	require.NoError(t, e.CrossfadeTo(ctx, engine.Music, r.url("storm.wav"), 0))
	r.backend.Advance(time.Second)
	src, playing := e.NowPlaying(engine.Music)
	assert.True(t, playing)
	assert.Equal(t, r.url("storm.wav"), src)

	require.NoError(t, e.Stop(engine.Rain))
	out = r.backend.Advance(50 * time.Millisecond)
	assert.Less(t, out[0], 0.0, "only the inverted storm track remains")

	require.NoError(t, e.Dispose())
	assert.Equal(t, engine.StateDisposed, e.State())

	assert.False(t, r.history.Disabled())
	// initialize, two plays, crossfade, two stops, dispose
	assert.Equal(t, 7, r.history.Recorded())
}

func TestUnavailableSourcesAreRecorded(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	e := r.engine

	require.NoError(t, e.Initialize(ctx))

	err := e.Play(ctx, engine.Music, r.url("missing.wav"))
	require.Error(t, err)
	var fetchErr *source.FetchError
	assert.True(t, errors.As(err, &fetchErr), "expected a fetch error, got %v", err)

	err = e.Play(ctx, engine.Fire, "audio/fire.ogg")
	require.Error(t, err)

	assert.False(t, e.IsPlaying(engine.Music))
	assert.False(t, e.IsPlaying(engine.Fire))
	// initialize and two load failures
	assert.Equal(t, 3, r.history.Recorded())
	assert.False(t, r.history.Disabled())

	unavailable, err := tracking.GetUnavailableSources(r.db, tracking.QueryFilter{Days: 1})
	require.NoError(t, err)
	require.Len(t, unavailable, 2)
	for _, u := range unavailable {
		assert.Equal(t, 1, u.Failures)
		assert.NotEmpty(t, u.LastError)
	}
}

// wav builds a mono 16-bit PCM file of n samples all set to level
func wav(sampleRate, n int, level int16) []byte {
	data := new(bytes.Buffer)
	for i := 0; i < n; i++ {
		binary.Write(data, binary.LittleEndian, level)
	}
	b := new(bytes.Buffer)
	b.WriteString("RIFF")
	binary.Write(b, binary.LittleEndian, uint32(36+data.Len()))
	b.WriteString("WAVEfmt ")
	binary.Write(b, binary.LittleEndian, uint32(16))
	binary.Write(b, binary.LittleEndian, uint16(1))
	binary.Write(b, binary.LittleEndian, uint16(1))
	binary.Write(b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(b, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(b, binary.LittleEndian, uint16(2))
	binary.Write(b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(b, binary.LittleEndian, uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}
