//go:build cgo

package output

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/gopxl/beep"
)

// MalgoBackend plays through a miniaudio playback device in float32 stereo
type MalgoBackend struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	ctx     *Context
	device  *malgo.Device
	scratch scratch
	state   State
	started bool
}

// NewMalgoBackend opens a miniaudio context. The device itself is created by Start.
func NewMalgoBackend(rate beep.SampleRate) (*MalgoBackend, error) {
	ctx, err := NewContext()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, err)
	}
	slog.Debug("created malgo backend", "sample_rate", int(rate))
	return &MalgoBackend{rate: rate, ctx: ctx}, nil
}

func (b *MalgoBackend) Name() string { return BackendMalgo }

func (b *MalgoBackend) SampleRate() beep.SampleRate { return b.rate }

// Start creates the playback device and starts it pulling from render
func (b *MalgoBackend) Start(render RenderFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.started {
		return ErrBackendStarted
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 2
	config.SampleRate = uint32(b.rate)
	config.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, _ []byte, framecount uint32) {
		samples := b.scratch.frames(int(framecount))
		render(samples)
		encodeFloat32LE(pOutputSample, samples)
	}

	device, err := malgo.InitDevice(b.ctx.ctx.Context, config, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		slog.Error("failed to initialize playback device", "error", err)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		slog.Error("failed to start playback device", "error", err)
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	b.device = device
	b.started = true
	b.state = StateRunning
	slog.Info("malgo playback device started", "sample_rate", int(b.rate))
	return nil
}

func (b *MalgoBackend) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state == StateClosed:
		return ErrBackendClosed
	case b.device == nil || b.state == StateSuspended:
		return nil
	}

	if err := b.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	b.state = StateSuspended
	slog.Debug("malgo playback device suspended")
	return nil
}

func (b *MalgoBackend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state == StateClosed:
		return ErrBackendClosed
	case b.device == nil || b.state == StateRunning:
		return nil
	}

	if err := b.device.Start(); err != nil {
		return fmt.Errorf("failed to restart playback device: %w", err)
	}
	b.state = StateRunning
	slog.Debug("malgo playback device resumed")
	return nil
}

func (b *MalgoBackend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return nil
	}
	b.state = StateClosed

	if b.device != nil {
		b.device.Uninit()
		b.device = nil
	}
	if err := b.ctx.Close(); err != nil {
		return fmt.Errorf("failed to close audio context: %w", err)
	}

	slog.Debug("malgo backend closed")
	return nil
}
