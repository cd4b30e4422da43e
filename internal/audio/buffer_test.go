package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
)

func constantData(value float32, channels, rate, frames int) *AudioData {
	samples := make([]float32, channels*frames)
	for i := range samples {
		samples[i] = value
	}
	return &AudioData{Samples: samples, Channels: channels, SampleRate: rate}
}

func TestNewBufferRejectsEmptyData(t *testing.T) {
	for name, data := range map[string]*AudioData{
		"nil":       nil,
		"no frames": {Channels: 2, SampleRate: 1000},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewBuffer("x", data, 1000); !errors.Is(err, ErrEmptyBuffer) {
				t.Errorf("expected ErrEmptyBuffer, got %v", err)
			}
		})
	}
}

func TestNewBufferDuplicatesMono(t *testing.T) {
	buf, err := NewBuffer("mono", constantData(0.5, 1, 1000, 100), 1000)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if buf.ID() != "mono" {
		t.Errorf("expected id 'mono', got %q", buf.ID())
	}
	if buf.Len() != 100 {
		t.Errorf("expected 100 frames, got %d", buf.Len())
	}
	if buf.Duration() != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", buf.Duration())
	}

	samples := make([][2]float64, 10)
	n, ok := buf.Once().Stream(samples)
	if !ok || n != 10 {
		t.Fatalf("expected 10 frames, got %d ok=%v", n, ok)
	}
	for i, s := range samples {
		if math.Abs(s[0]-0.5) > 1e-4 || math.Abs(s[1]-0.5) > 1e-4 {
			t.Errorf("frame %d = %v, want both sides at 0.5", i, s)
		}
	}
}

func TestBufferLoopRepeats(t *testing.T) {
	buf, err := NewBuffer("loop", constantData(0.25, 2, 1000, 50), 1000)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	samples := make([][2]float64, 175)
	n, ok := buf.Loop().Stream(samples)
	if !ok || n != len(samples) {
		t.Fatalf("loop should fill the whole block, got %d ok=%v", n, ok)
	}
	if math.Abs(samples[174][0]-0.25) > 1e-4 {
		t.Errorf("expected looped audio at frame 174, got %v", samples[174])
	}
}

func TestNewBufferResamples(t *testing.T) {
	buf, err := NewBuffer("rate", constantData(0.5, 2, 22050, 2205), 44100)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if buf.SampleRate() != beep.SampleRate(44100) {
		t.Errorf("expected 44100 Hz, got %d", buf.SampleRate())
	}
	if math.Abs(float64(buf.Len())-4410) > 8 {
		t.Errorf("expected about 4410 frames after resampling, got %d", buf.Len())
	}
}
