package graph

import (
	"github.com/gopxl/beep"
)

// GainStage sums the voices attached to it and scales them by a ramped gain.
// A stage feeds at most one bus; once disconnected it is spent.
type GainStage struct {
	gain         Param
	inputs       beep.Mixer
	voices       map[*Voice]struct{}
	cursor       int64
	bus          *Bus
	disconnected bool
}

// NewGainStage creates a stage holding gain v whose first rendered frame is now
func NewGainStage(v float64, now int64) *GainStage {
	return &GainStage{
		gain:   NewParam(v),
		voices: make(map[*Voice]struct{}),
		cursor: now,
	}
}

// Gain returns the gain held at frame
func (s *GainStage) Gain(frame int64) float64 {
	return s.gain.ValueAt(frame)
}

// TargetGain returns the gain the stage settles at
func (s *GainStage) TargetGain() float64 {
	return s.gain.Target()
}

// RampEnd returns the frame at which the gain stops moving
func (s *GainStage) RampEnd() int64 {
	return s.gain.End()
}

// SetGain jumps the gain to v at frame now
func (s *GainStage) SetGain(v float64, now int64) {
	s.gain.SetValueAt(v, now)
}

// RampGain linearly ramps the gain from its current value to v between now and end
func (s *GainStage) RampGain(v float64, now, end int64) {
	s.gain.LinearRampTo(v, now, end)
}

// Attach starts v on this stage. A stopped voice is ignored.
func (s *GainStage) Attach(v *Voice) {
	if v.stopped || s.disconnected {
		return
	}
	v.stage = s
	s.voices[v] = struct{}{}
	s.inputs.Add(v)
}

// Voices returns the number of live voices feeding the stage
func (s *GainStage) Voices() int {
	return len(s.voices)
}

// Connected reports whether the stage currently feeds a bus
func (s *GainStage) Connected() bool {
	return s.bus != nil
}

// Stream implements beep.Streamer
func (s *GainStage) Stream(samples [][2]float64) (int, bool) {
	if s.disconnected {
		return 0, false
	}
	n, _ := s.inputs.Stream(samples)
	silence(samples[n:])
	s.gain.apply(samples, s.cursor)
	s.cursor += int64(len(samples))
	return len(samples), true
}

// Err implements beep.Streamer
func (s *GainStage) Err() error {
	return nil
}
