package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidChannel is returned when an operation names a channel the engine does not have
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrNotInitialized is returned by playback operations issued before Initialize
	ErrNotInitialized = errors.New("audio engine not initialized")
)

// InvalidChannelError carries the offending channel id
type InvalidChannelError struct {
	Channel string
}

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("invalid channel %q", e.Channel)
}

// Is makes errors.Is(err, ErrInvalidChannel) match
func (e *InvalidChannelError) Is(target error) bool {
	return target == ErrInvalidChannel
}

// ChannelID names one of the engine's fixed playback channels
type ChannelID string

const (
	Music  ChannelID = "music"
	Rain   ChannelID = "rain"
	Forest ChannelID = "forest"
	Ocean  ChannelID = "ocean"
	Fire   ChannelID = "fire"
)

// AllChannels lists every channel in a stable order, music first
var AllChannels = []ChannelID{Music, Rain, Forest, Ocean, Fire}

// AmbientChannels lists the ambient layers
var AmbientChannels = []ChannelID{Rain, Forest, Ocean, Fire}

// ParseChannelID validates a channel name coming from outside the engine
func ParseChannelID(s string) (ChannelID, error) {
	id := ChannelID(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range AllChannels {
		if c == id {
			return id, nil
		}
	}
	return "", &InvalidChannelError{Channel: s}
}

// IsAmbient reports whether the channel is one of the ambient layers
func (c ChannelID) IsAmbient() bool {
	return c != Music && c.valid()
}

func (c ChannelID) valid() bool {
	for _, id := range AllChannels {
		if id == c {
			return true
		}
	}
	return false
}

func (c ChannelID) String() string {
	return string(c)
}

// Percent is a volume on the 0..100 scale used at the engine boundary
type Percent float64

// Clamp limits p to [0, 100]. NaN is treated as silence.
func (p Percent) Clamp() Percent {
	switch {
	case math.IsNaN(float64(p)) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Normalized returns the clamped percent as a gain in [0, 1]
func (p Percent) Normalized() float64 {
	return float64(p.Clamp()) / 100
}

// percentOf reports a normalized volume as a rounded percent
func percentOf(v float64) int {
	return int(math.Round(v * 100))
}

// State is the engine lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateSuspended
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateSuspended:
		return "suspended"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// active reports whether playback operations are accepted in this state
func (s State) active() bool {
	return s == StateReady || s == StateSuspended
}

// Default volumes, as normalized gains
const (
	DefaultMasterVolume  = 0.7
	DefaultMusicVolume   = 0.6
	DefaultAmbientVolume = 0.3
)

func defaultVolume(id ChannelID) float64 {
	if id == Music {
		return DefaultMusicVolume
	}
	return DefaultAmbientVolume
}
