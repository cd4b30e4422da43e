package output

import (
	"errors"

	"github.com/gopxl/beep"
)

// Common errors for Backend implementations
var (
	ErrBackendNotAvailable = errors.New("audio backend not available")
	ErrBackendClosed       = errors.New("audio backend is closed")
	ErrBackendStarted      = errors.New("audio backend already started")
)

// State is the running state of an output backend
type State int

const (
	// StateSuspended means the device exists but pulls no audio
	StateSuspended State = iota
	// StateRunning means the device is pulling audio from the render func
	StateRunning
	// StateClosed means the backend released its device and cannot be reused
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RenderFunc fills samples with the next block of stereo output. It is called
// from the device's audio thread.
type RenderFunc func(samples [][2]float64)

// Backend is a stereo output device that pulls audio from a render func.
// Implementations handle the actual device mechanism (malgo, oto, none).
type Backend interface {
	// Name identifies the backend type, e.g. "malgo"
	Name() string

	// SampleRate is the rate the backend pulls audio at
	SampleRate() beep.SampleRate

	// Start opens the device and begins pulling from render. A backend may come
	// up suspended when the platform withholds audio until the user interacts.
	Start(render RenderFunc) error

	// Suspend pauses pulling audio, Resume continues it. Both are no-ops when
	// already in the requested state.
	Suspend() error
	Resume() error

	State() State

	// Close releases the device. Closing twice is a no-op.
	Close() error
}
