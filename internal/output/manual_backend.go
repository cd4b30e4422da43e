package output

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
)

// ManualBackend renders only when told to. Tests drive the mixing clock with
// Advance and inspect what the device would have played.
type ManualBackend struct {
	mu             sync.Mutex
	rate           beep.SampleRate
	render         RenderFunc
	state          State
	started        bool
	startSuspended bool
	rendered       int64
	last           [2]float64
	startErr       error
	resumeErr      error
}

// ManualOption configures a ManualBackend
type ManualOption func(*ManualBackend)

// WithStartSuspended makes Start leave the backend suspended, the way a
// platform autoplay policy would
func WithStartSuspended() ManualOption {
	return func(b *ManualBackend) {
		b.startSuspended = true
	}
}

// WithStartError makes Start fail with err
func WithStartError(err error) ManualOption {
	return func(b *ManualBackend) {
		b.startErr = err
	}
}

// WithResumeError makes Resume fail with err
func WithResumeError(err error) ManualOption {
	return func(b *ManualBackend) {
		b.resumeErr = err
	}
}

// NewManualBackend creates a manually clocked backend at rate
func NewManualBackend(rate beep.SampleRate, opts ...ManualOption) *ManualBackend {
	b := &ManualBackend{rate: rate}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *ManualBackend) Name() string { return "manual" }

func (b *ManualBackend) SampleRate() beep.SampleRate { return b.rate }

func (b *ManualBackend) Start(render RenderFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.started {
		return ErrBackendStarted
	}
	if b.startErr != nil {
		return b.startErr
	}
	b.render = render
	b.started = true
	if b.startSuspended {
		b.state = StateSuspended
	} else {
		b.state = StateRunning
	}
	return nil
}

func (b *ManualBackend) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.started {
		b.state = StateSuspended
	}
	return nil
}

func (b *ManualBackend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.resumeErr != nil {
		return b.resumeErr
	}
	if b.started {
		b.state = StateRunning
	}
	return nil
}

func (b *ManualBackend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *ManualBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	return nil
}

// Advance renders d worth of audio in device-sized blocks and returns the
// final sample. Nothing is rendered unless the backend is running.
func (b *ManualBackend) Advance(d time.Duration) [2]float64 {
	return b.AdvanceFrames(b.rate.N(d))
}

// AdvanceFrames renders n frames and returns the final sample
func (b *ManualBackend) AdvanceFrames(n int) [2]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateRunning || n <= 0 {
		return b.last
	}

	const block = 256
	samples := make([][2]float64, block)
	for n > 0 {
		size := block
		if n < size {
			size = n
		}
		b.render(samples[:size])
		b.last = samples[size-1]
		b.rendered += int64(size)
		n -= size
	}
	return b.last
}

// Last returns the most recently rendered sample
func (b *ManualBackend) Last() [2]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Rendered returns the total number of frames rendered
func (b *ManualBackend) Rendered() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rendered
}
