// Package engine mixes one music channel and several ambient channels through
// a shared master bus and plays the result on an output backend.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/graph"
	"github.com/ctoth/soundscape/internal/output"
)

const (
	// DefaultCrossfade is used by CrossfadeTo when no duration is given
	DefaultCrossfade = 2 * time.Second

	// volumeRamp smooths every volume change
	volumeRamp = 50 * time.Millisecond

	preloadParallelism = 4
)

// Loader supplies decoded buffers by source id. *cache.BufferCache implements it.
type Loader interface {
	Load(ctx context.Context, id string) (*audio.Buffer, error)
	Clear()
}

// Engine owns the render graph, the channels and the output backend.
// It is safe for concurrent use.
type Engine struct {
	// mu guards state and the graph topology. Playback operations hold it
	// shared; Initialize, Suspend, Resume and Dispose hold it exclusively.
	mu       sync.RWMutex
	state    State
	backend  output.Backend
	loader   Loader
	graph    *graph.Graph
	bus      *graph.Bus
	master   float64
	channels map[ChannelID]*channel

	initial   map[ChannelID]float64
	crossfade time.Duration
	hooks     []EventHook
}

// ChannelStatus is a snapshot of one channel
type ChannelStatus struct {
	ID      ChannelID
	Volume  int
	Playing bool
	Source  string
}

// Status is a snapshot of the whole engine
type Status struct {
	State    State
	Backend  string
	Master   int
	Channels []ChannelStatus
}

// New creates an uninitialized engine. Nothing touches the backend until Initialize.
func New(backend output.Backend, loader Loader, opts ...Option) *Engine {
	e := &Engine{
		backend:   backend,
		loader:    loader,
		master:    DefaultMasterVolume,
		initial:   make(map[ChannelID]float64),
		crossfade: DefaultCrossfade,
	}
	for _, opt := range opts {
		opt(e)
	}
	slog.Debug("audio engine created",
		"backend", backend.Name(),
		"crossfade", e.crossfade,
		"hooks", len(e.hooks))
	return e
}

// Initialize builds the graph and starts the output. Only the first call has
// any effect. If the output comes up suspended it is resumed.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUninitialized {
		slog.Debug("initialize ignored", "state", e.state.String())
		return nil
	}

	g := graph.New(e.backend.SampleRate())
	channels := make(map[ChannelID]*channel, len(AllChannels))
	var bus *graph.Bus
	g.Update(func(now int64) {
		bus = graph.NewBus(e.master, now)
		for _, id := range AllChannels {
			vol, ok := e.initial[id]
			if !ok {
				vol = defaultVolume(id)
			}
			channels[id] = newChannel(id, vol, bus, now)
		}
		g.SetDestination(bus)
	})

	if err := e.backend.Start(g.Render); err != nil {
		slog.Error("failed to start audio output", "backend", e.backend.Name(), "error", err)
		return fmt.Errorf("failed to start %s output: %w", e.backend.Name(), err)
	}

	e.graph, e.bus, e.channels = g, bus, channels
	e.state = StateReady

	if e.backend.State() == output.StateSuspended {
		slog.Debug("output started suspended, resuming", "backend", e.backend.Name())
		if err := e.backend.Resume(); err != nil {
			slog.Warn("output could not be resumed, engine stays suspended",
				"backend", e.backend.Name(),
				"error", err)
			e.state = StateSuspended
		}
	}

	slog.Info("audio engine initialized",
		"backend", e.backend.Name(),
		"sample_rate", int(g.SampleRate()),
		"state", e.state.String(),
		"channels", len(channels))
	e.emit(Event{Kind: EventInitialize, Volume: percentOf(e.master)})
	return nil
}

// State returns the lifecycle state
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// acquire checks that a playback operation may run and resolves its channel.
// It returns a nil channel and nil error when the engine is disposed. Caller holds e.mu.
func (e *Engine) acquire(op string, id ChannelID) (*channel, error) {
	switch e.state {
	case StateDisposed:
		slog.Debug("operation on disposed engine ignored", "op", op, "channel", string(id))
		return nil, nil
	case StateUninitialized:
		slog.Error("operation before initialize", "op", op, "channel", string(id))
		return nil, fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	ch, ok := e.channels[id]
	if !ok {
		slog.Error("operation on unknown channel", "op", op, "channel", string(id))
		return nil, &InvalidChannelError{Channel: string(id)}
	}
	return ch, nil
}

// Play stops the channel, loads src and loops it at the channel volume
func (e *Engine) Play(ctx context.Context, id ChannelID, src string) error {
	return e.start(ctx, "play", id, src, 0)
}

// CrossfadeTo fades the channel from what it plays now to src over d. A
// channel that is not playing simply starts src. d <= 0 uses the engine default.
func (e *Engine) CrossfadeTo(ctx context.Context, id ChannelID, src string, d time.Duration) error {
	if d <= 0 {
		d = e.crossfade
	}
	return e.start(ctx, "crossfade", id, src, d)
}

// start implements Play (d == 0) and CrossfadeTo. The channel generation taken
// before loading lets any later operation on the channel supersede this one.
func (e *Engine) start(ctx context.Context, op string, id ChannelID, src string, d time.Duration) error {
	e.mu.RLock()
	ch, err := e.acquire(op, id)
	if ch == nil {
		e.mu.RUnlock()
		return err
	}

	ch.mu.Lock()
	ch.gen++
	gen := ch.gen
	fading := d > 0 && ch.playing
	if !fading {
		e.graph.Update(func(int64) {
			ch.silence(e.bus)
		})
		ch.playing = false
	}
	ch.mu.Unlock()
	e.mu.RUnlock()

	slog.Debug("loading source", "op", op, "channel", string(id), "source", src)

	buf, err := e.loader.Load(ctx, src)
	if err != nil {
		slog.Error("failed to load source",
			"op", op,
			"channel", string(id),
			"source", src,
			"error", err)
		e.emit(Event{Kind: EventLoadFailed, Channel: id, Source: src, Err: err})
		return fmt.Errorf("%s %q on %s: %w", op, src, id, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.state.active() {
		slog.Debug("load finished after engine shut down", "channel", string(id), "source", src)
		return nil
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.gen != gen {
		slog.Debug("load superseded by a later operation",
			"op", op,
			"channel", string(id),
			"source", src)
		return nil
	}

	rate := e.graph.SampleRate()
	e.graph.Update(func(now int64) {
		v := graph.NewVoice(src, buf.Streamer(rate))
		if fading {
			ch.crossfade(e.graph, e.bus, v, now, now+e.graph.Frames(d))
			return
		}
		ch.stage.Attach(v)
		ch.stage.SetGain(ch.volume, now)
		ch.voice = v
	})
	ch.playing = true
	ch.source = src

	kind := EventPlay
	if fading {
		kind = EventCrossfade
		slog.Info("crossfade started", "channel", string(id), "source", src, "duration", d)
	} else {
		slog.Info("playback started", "channel", string(id), "source", src)
	}
	e.emit(Event{Kind: kind, Channel: id, Source: src, Volume: percentOf(ch.volume)})
	return nil
}

// Stop silences the channel, including any crossfade still fading out on it
func (e *Engine) Stop(id ChannelID) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ch, err := e.acquire("stop", id)
	if ch == nil {
		return err
	}
	e.stop(ch)
	return nil
}

// StopAll stops every channel
func (e *Engine) StopAll() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch e.state {
	case StateDisposed:
		return nil
	case StateUninitialized:
		slog.Error("operation before initialize", "op", "stop_all")
		return fmt.Errorf("stop_all: %w", ErrNotInitialized)
	}
	for _, id := range AllChannels {
		e.stop(e.channels[id])
	}
	return nil
}

// stop silences ch and supersedes any load in flight on it. Caller holds e.mu.
func (e *Engine) stop(ch *channel) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.gen++
	e.graph.Update(func(int64) {
		ch.silence(e.bus)
	})
	if !ch.playing {
		return
	}
	ch.playing = false
	slog.Info("playback stopped", "channel", string(ch.id), "source", ch.source)
	e.emit(Event{Kind: EventStop, Channel: ch.id, Source: ch.source})
}

// SetChannelVolume sets a channel volume in percent, clamped to 0..100
func (e *Engine) SetChannelVolume(id ChannelID, p Percent) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ch, err := e.acquire("set_volume", id)
	if ch == nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.volume = p.Normalized()
	e.graph.Update(func(now int64) {
		end := now + e.graph.Frames(volumeRamp)
		// a crossfade still fading in keeps its own pace
		if fadeEnd := ch.stage.RampEnd(); fadeEnd > end {
			end = fadeEnd
		}
		ch.stage.RampGain(ch.volume, now, end)
	})
	slog.Debug("channel volume set", "channel", string(id), "volume", percentOf(ch.volume))
	return nil
}

// SetMasterVolume sets the master bus volume in percent, clamped to 0..100
func (e *Engine) SetMasterVolume(p Percent) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch e.state {
	case StateDisposed:
		return nil
	case StateUninitialized:
		slog.Error("operation before initialize", "op", "set_master_volume")
		return fmt.Errorf("set_master_volume: %w", ErrNotInitialized)
	}

	v := p.Normalized()
	e.graph.Update(func(now int64) {
		e.master = v
		e.bus.RampGain(v, now, now+e.graph.Frames(volumeRamp))
	})
	slog.Debug("master volume set", "volume", percentOf(v))
	return nil
}

// MasterVolume returns the master volume as a rounded percent
func (e *Engine) MasterVolume() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.graph == nil {
		return percentOf(e.master)
	}
	var v float64
	e.graph.Update(func(int64) {
		v = e.master
	})
	return percentOf(v)
}

// ChannelVolume returns a channel volume as a rounded percent, 0 for an unknown channel
func (e *Engine) ChannelVolume(id ChannelID) int {
	ch := e.lookup(id)
	if ch == nil {
		return 0
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return percentOf(ch.volume)
}

// IsPlaying reports whether the channel is playing
func (e *Engine) IsPlaying(id ChannelID) bool {
	ch := e.lookup(id)
	if ch == nil {
		return false
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.playing
}

// NowPlaying returns the source of the channel's authoritative voice
func (e *Engine) NowPlaying(id ChannelID) (string, bool) {
	ch := e.lookup(id)
	if ch == nil {
		return "", false
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.playing {
		return "", false
	}
	return ch.source, true
}

func (e *Engine) lookup(id ChannelID) *channel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.channels[id]
}

// Toggle stops a playing channel, or starts src on it at volume p. It reports
// whether the channel is playing afterwards.
func (e *Engine) Toggle(ctx context.Context, id ChannelID, src string, p Percent) (bool, error) {
	if e.IsPlaying(id) {
		return false, e.Stop(id)
	}
	if err := e.SetChannelVolume(id, p); err != nil {
		return false, err
	}
	if err := e.Play(ctx, id, src); err != nil {
		return false, err
	}
	return e.IsPlaying(id), nil
}

// Preload warms the loader with every source concurrently. It works before
// Initialize too, so assets can be fetched ahead of the first gesture.
func (e *Engine) Preload(ctx context.Context, sources ...string) error {
	if e.State() == StateDisposed {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadParallelism)
	for _, src := range sources {
		g.Go(func() error {
			if _, err := e.loader.Load(gctx, src); err != nil {
				return fmt.Errorf("preload %q: %w", src, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("preload incomplete", "sources", len(sources), "error", err)
		return err
	}
	slog.Debug("preload complete", "sources", len(sources))
	return nil
}

// Suspend pauses output without touching the graph. Ramps and pending
// crossfade cleanups resume with the output.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateSuspended, StateDisposed:
		return nil
	case StateUninitialized:
		slog.Error("operation before initialize", "op", "suspend")
		return fmt.Errorf("suspend: %w", ErrNotInitialized)
	}

	if err := e.backend.Suspend(); err != nil {
		slog.Error("failed to suspend output", "backend", e.backend.Name(), "error", err)
		return fmt.Errorf("failed to suspend output: %w", err)
	}
	e.state = StateSuspended
	slog.Info("audio engine suspended")
	e.emit(Event{Kind: EventSuspend})
	return nil
}

// Resume restarts output after Suspend
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateReady, StateDisposed:
		return nil
	case StateUninitialized:
		slog.Error("operation before initialize", "op", "resume")
		return fmt.Errorf("resume: %w", ErrNotInitialized)
	}

	if err := e.backend.Resume(); err != nil {
		slog.Error("failed to resume output", "backend", e.backend.Name(), "error", err)
		return fmt.Errorf("failed to resume output: %w", err)
	}
	e.state = StateReady
	slog.Info("audio engine resumed")
	e.emit(Event{Kind: EventResume})
	return nil
}

// Dispose stops everything, drops cached buffers and closes the output. The
// engine is unusable afterwards; every later call is a no-op.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDisposed {
		return nil
	}

	if e.state.active() {
		for _, id := range AllChannels {
			e.stop(e.channels[id])
		}
		e.graph.Update(func(int64) {
			e.bus.Release()
			e.graph.Reset()
		})
	}

	e.loader.Clear()

	var closeErr error
	if err := e.backend.Close(); err != nil {
		slog.Warn("failed to close audio output", "backend", e.backend.Name(), "error", err)
		closeErr = fmt.Errorf("failed to close output: %w", err)
	}

	e.state = StateDisposed
	e.channels = nil
	slog.Info("audio engine disposed")
	e.emit(Event{Kind: EventDispose})
	return closeErr
}

// Status returns a snapshot of the engine and its channels
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		State:   e.state,
		Backend: e.backend.Name(),
	}
	// once initialized, master is only written inside graph updates
	if e.graph == nil {
		st.Master = percentOf(e.master)
	} else {
		e.graph.Update(func(int64) {
			st.Master = percentOf(e.master)
		})
	}
	for _, id := range AllChannels {
		ch, ok := e.channels[id]
		if !ok {
			continue
		}
		ch.mu.Lock()
		cs := ChannelStatus{ID: id, Volume: percentOf(ch.volume), Playing: ch.playing}
		if ch.playing {
			cs.Source = ch.source
		}
		ch.mu.Unlock()
		st.Channels = append(st.Channels, cs)
	}
	return st
}
