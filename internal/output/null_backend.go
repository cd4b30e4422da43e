package output

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
)

const nullTick = 10 * time.Millisecond

// NullBackend renders in real time and discards the result. It keeps the
// mixing clock moving on hosts without an audio device.
type NullBackend struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	state   State
	started bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewNullBackend creates a null output running at rate
func NewNullBackend(rate beep.SampleRate) *NullBackend {
	return &NullBackend{rate: rate, done: make(chan struct{})}
}

func (b *NullBackend) Name() string { return BackendNull }

func (b *NullBackend) SampleRate() beep.SampleRate { return b.rate }

func (b *NullBackend) Start(render RenderFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.started {
		return ErrBackendStarted
	}
	b.started = true
	b.state = StateRunning

	b.wg.Add(1)
	go b.loop(render)

	slog.Debug("null output started", "sample_rate", int(b.rate))
	return nil
}

func (b *NullBackend) loop(render RenderFunc) {
	defer b.wg.Done()

	ticker := time.NewTicker(nullTick)
	defer ticker.Stop()

	samples := make([][2]float64, b.rate.N(nullTick))
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			if b.State() == StateRunning {
				render(samples)
			}
		}
	}
}

func (b *NullBackend) Suspend() error {
	return b.setState(StateSuspended)
}

func (b *NullBackend) Resume() error {
	return b.setState(StateRunning)
}

func (b *NullBackend) setState(s State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return ErrBackendClosed
	}
	if b.started {
		b.state = s
	}
	return nil
}

func (b *NullBackend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *NullBackend) Close() error {
	b.mu.Lock()
	if b.state == StateClosed {
		b.mu.Unlock()
		return nil
	}
	b.state = StateClosed
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()
	slog.Debug("null output closed")
	return nil
}
