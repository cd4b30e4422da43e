package graph

import (
	"log/slog"

	"github.com/gopxl/beep"
)

// Bus is the single gain stage every channel is routed through before the
// output device.
type Bus struct {
	gain   Param
	mixer  beep.Mixer
	stages map[*GainStage]struct{}
	cursor int64
}

// NewBus creates a bus holding gain v whose first rendered frame is now
func NewBus(v float64, now int64) *Bus {
	slog.Debug("creating master bus", "gain", v, "frame", now)
	return &Bus{
		gain:   NewParam(v),
		stages: make(map[*GainStage]struct{}),
		cursor: now,
	}
}

// Gain returns the bus gain held at frame
func (b *Bus) Gain(frame int64) float64 {
	return b.gain.ValueAt(frame)
}

// RampGain linearly ramps the bus gain from its current value to v between now and end
func (b *Bus) RampGain(v float64, now, end int64) {
	b.gain.LinearRampTo(v, now, end)
}

// Connect routes a stage into the bus. Spent or already routed stages are ignored.
func (b *Bus) Connect(s *GainStage) {
	if s.disconnected || s.bus != nil {
		return
	}
	s.bus = b
	b.stages[s] = struct{}{}
	b.mixer.Add(s)
}

// Disconnect removes a stage from the bus; it stops rendering from the next block.
// It reports false when the stage was not routed into this bus.
func (b *Bus) Disconnect(s *GainStage) bool {
	if s.bus != b {
		return false
	}
	delete(b.stages, s)
	s.bus = nil
	s.disconnected = true
	return true
}

// Inputs returns the number of stages routed into the bus
func (b *Bus) Inputs() int {
	return len(b.stages)
}

// Voices returns the number of live voices reachable through the bus
func (b *Bus) Voices() int {
	n := 0
	for s := range b.stages {
		n += s.Voices()
	}
	return n
}

// Sources lists the source identifiers of every live voice reachable through the bus
func (b *Bus) Sources() []string {
	var sources []string
	for s := range b.stages {
		for v := range s.voices {
			sources = append(sources, v.source)
		}
	}
	return sources
}

// Release stops every voice and disconnects every stage
func (b *Bus) Release() {
	stages := len(b.stages)
	for s := range b.stages {
		for v := range s.voices {
			v.Stop()
		}
		b.Disconnect(s)
	}
	slog.Debug("master bus released", "stages_disconnected", stages)
}

// Stream implements beep.Streamer
func (b *Bus) Stream(samples [][2]float64) (int, bool) {
	n, _ := b.mixer.Stream(samples)
	silence(samples[n:])
	b.gain.apply(samples, b.cursor)
	b.cursor += int64(len(samples))
	return len(samples), true
}

// Err implements beep.Streamer
func (b *Bus) Err() error {
	return nil
}
