//go:build cgo

package output

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
)

// oto allows a single context per process
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate beep.SampleRate
	otoErr  error
)

func sharedOtoContext(rate beep.SampleRate) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(rate),
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   50 * time.Millisecond,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx, otoRate = ctx, rate
		slog.Info("oto context initialized", "sample_rate", int(rate))
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != rate {
		return nil, fmt.Errorf("oto context already running at %d Hz", int(otoRate))
	}
	return otoCtx, nil
}

// OtoBackend plays through an oto player reading from the render func
type OtoBackend struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	ctx     *oto.Context
	player  *oto.Player
	state   State
	started bool
}

// NewOtoBackend acquires the process-wide oto context at rate
func NewOtoBackend(rate beep.SampleRate) (*OtoBackend, error) {
	ctx, err := sharedOtoContext(rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, err)
	}
	return &OtoBackend{rate: rate, ctx: ctx}, nil
}

func (b *OtoBackend) Name() string { return BackendOto }

func (b *OtoBackend) SampleRate() beep.SampleRate { return b.rate }

func (b *OtoBackend) Start(render RenderFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.started {
		return ErrBackendStarted
	}

	b.player = b.ctx.NewPlayer(&renderReader{render: render})
	b.player.Play()
	b.started = true
	b.state = StateRunning
	slog.Info("oto player started", "sample_rate", int(b.rate))
	return nil
}

func (b *OtoBackend) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state == StateClosed:
		return ErrBackendClosed
	case b.player == nil || b.state == StateSuspended:
		return nil
	}
	b.player.Pause()
	b.state = StateSuspended
	return nil
}

func (b *OtoBackend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state == StateClosed:
		return ErrBackendClosed
	case b.player == nil || b.state == StateRunning:
		return nil
	}
	b.player.Play()
	b.state = StateRunning
	return nil
}

func (b *OtoBackend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Close releases the player. The shared oto context stays open for the process.
func (b *OtoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return nil
	}
	b.state = StateClosed
	if b.player != nil {
		if err := b.player.Close(); err != nil {
			return fmt.Errorf("failed to close oto player: %w", err)
		}
		b.player = nil
	}
	slog.Debug("oto backend closed")
	return nil
}

// renderReader adapts a RenderFunc to the io.Reader oto pulls from
type renderReader struct {
	render  RenderFunc
	scratch scratch
}

func (r *renderReader) Read(p []byte) (int, error) {
	n := len(p) / bytesPerFrame
	if n == 0 {
		return 0, nil
	}
	samples := r.scratch.frames(n)
	r.render(samples)
	encodeFloat32LE(p, samples)
	return n * bytesPerFrame, nil
}
