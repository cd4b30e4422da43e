package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gopxl/beep"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/cache"
	"github.com/ctoth/soundscape/internal/config"
	"github.com/ctoth/soundscape/internal/engine"
	"github.com/ctoth/soundscape/internal/output"
	"github.com/ctoth/soundscape/internal/soundpack"
	"github.com/ctoth/soundscape/internal/source"
	"github.com/ctoth/soundscape/internal/tracking"
)

// player is one engine together with the pieces wired into it
type player struct {
	engine  *engine.Engine
	cache   *cache.BufferCache
	history *tracking.DBHook
}

// newPlayer builds the output, source, cache and engine stack for cfg. The
// engine is returned uninitialized; nothing touches the audio device yet.
func (c *CLI) newPlayer(cfg *config.Config) (*player, error) {
	rate := beep.SampleRate(cfg.SampleRate)
	if rate <= 0 {
		rate = output.DefaultSampleRate
	}

	backend, err := c.newBackends(rate).CreateBackend(cfg.AudioBackend)
	if err != nil {
		slog.Error("failed to create audio backend", "backend_type", cfg.AudioBackend, "error", err)
		return nil, fmt.Errorf("failed to create audio backend '%s': %w", cfg.AudioBackend, err)
	}

	resolver, err := c.newResolver(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	sounds := c.fsFactory.Sounds(c.fs)
	fetcher := &source.Router{
		Files: source.NewFileFetcher(sounds, resolver),
		HTTP:  source.NewHTTPFetcher(nil),
	}
	buffers := cache.New(fetcher, audio.NewDefaultRegistry(), rate)

	opts := []engine.Option{
		engine.WithMasterVolume(engine.Percent(cfg.MasterVolume)),
		engine.WithCrossfadeDuration(time.Duration(cfg.CrossfadeSeconds * float64(time.Second))),
		engine.WithHook(tracking.NewSlogHook(nil).GetHook()),
	}
	for name, v := range cfg.ChannelVolumes {
		id, err := engine.ParseChannelID(name)
		if err != nil {
			continue
		}
		opts = append(opts, engine.WithChannelVolume(id, engine.Percent(v)))
	}

	p := &player{cache: buffers}
	if db := c.openHistory(cfg); db != nil {
		p.history = tracking.NewDBHook(db, c.sessionID)
		opts = append(opts, engine.WithHook(p.history.GetHook()))
	}

	p.engine = engine.New(backend, buffers, opts...)

	slog.Debug("player assembled",
		"backend", backend.Name(),
		"sample_rate", int(rate),
		"soundpack", resolver.GetName(),
		"history", p.history != nil)

	return p, nil
}

// newResolver maps source ids through the configured soundpack, falling back
// to plain file paths
func (c *CLI) newResolver(cfg *config.Config) (soundpack.SoundpackResolver, error) {
	sounds := c.fsFactory.Sounds(c.fs)
	basePaths := c.configManager.ResolveSoundpackPaths(cfg)

	mapper, err := soundpack.CreateSoundpackMapperWithBasePaths(sounds, cfg.Soundpack, cfg.Soundpack, basePaths)
	if err != nil {
		slog.Error("failed to load soundpack", "soundpack", cfg.Soundpack, "error", err)
		return nil, fmt.Errorf("failed to load soundpack '%s': %w", cfg.Soundpack, err)
	}

	return soundpack.NewSoundpackResolver(sounds, soundpack.WithDirectPaths(mapper)), nil
}
