package engine

import (
	"log/slog"
	"time"
)

// EventKind classifies what the engine did
type EventKind int

const (
	EventInitialize EventKind = iota
	EventPlay
	EventCrossfade
	EventStop
	EventLoadFailed
	EventSuspend
	EventResume
	EventDispose
)

func (k EventKind) String() string {
	switch k {
	case EventInitialize:
		return "initialize"
	case EventPlay:
		return "play"
	case EventCrossfade:
		return "crossfade"
	case EventStop:
		return "stop"
	case EventLoadFailed:
		return "load_failed"
	case EventSuspend:
		return "suspend"
	case EventResume:
		return "resume"
	case EventDispose:
		return "dispose"
	default:
		return "unknown"
	}
}

// Event describes one completed engine operation
type Event struct {
	Kind    EventKind
	Channel ChannelID
	Source  string
	Volume  int
	Err     error
	At      time.Time
}

// EventHook observes engine events. Hooks run synchronously on the calling
// goroutine and must not call back into the engine.
type EventHook func(Event)

// Option configures an Engine
type Option func(*Engine)

// WithHook adds an observer for engine events
func WithHook(hook EventHook) Option {
	return func(e *Engine) {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
	}
}

// WithCrossfadeDuration sets the duration CrossfadeTo uses when given a non-positive one
func WithCrossfadeDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.crossfade = d
		}
	}
}

// WithMasterVolume sets the master volume the engine starts with
func WithMasterVolume(p Percent) Option {
	return func(e *Engine) {
		e.master = p.Normalized()
	}
}

// WithChannelVolume sets the volume a channel starts with. Unknown channels are ignored.
func WithChannelVolume(id ChannelID, p Percent) Option {
	return func(e *Engine) {
		if !id.valid() {
			slog.Warn("ignoring initial volume for unknown channel", "channel", string(id))
			return
		}
		e.initial[id] = p.Normalized()
	}
}

func (e *Engine) emit(ev Event) {
	if len(e.hooks) == 0 {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	for _, hook := range e.hooks {
		hook(ev)
	}
}
