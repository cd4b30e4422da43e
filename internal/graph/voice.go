package graph

import "github.com/gopxl/beep"

// Voice is one playback node: a streamer started on a gain stage. A voice is
// single-use; once stopped it never produces sound again.
type Voice struct {
	source  string
	s       beep.Streamer
	stage   *GainStage
	stopped bool
}

// NewVoice wraps s as a playback node for the named source
func NewVoice(source string, s beep.Streamer) *Voice {
	return &Voice{
		source: source,
		s:      s,
	}
}

// Source returns the source identifier the voice plays
func (v *Voice) Source() string {
	return v.source
}

// Stopped reports whether the voice has been stopped or ran out of data
func (v *Voice) Stopped() bool {
	return v.stopped
}

// Stop halts the voice and detaches it from its gain stage. Stopping a voice
// that already stopped is a no-op and reports false.
func (v *Voice) Stop() bool {
	if v.stopped {
		return false
	}
	v.finish()
	return true
}

func (v *Voice) finish() {
	v.stopped = true
	if v.stage != nil {
		delete(v.stage.voices, v)
		v.stage = nil
	}
}

// Stream implements beep.Streamer
func (v *Voice) Stream(samples [][2]float64) (int, bool) {
	if v.stopped {
		return 0, false
	}
	n, ok := v.s.Stream(samples)
	if !ok || n < len(samples) {
		v.finish()
	}
	return n, ok
}

// Err implements beep.Streamer
func (v *Voice) Err() error {
	return v.s.Err()
}
