package audio

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gopxl/beep"
)

// ErrEmptyBuffer is returned when decoded data holds no frames
var ErrEmptyBuffer = errors.New("audio data contains no frames")

// resampleQuality is the beep interpolation quality used when a sound's native
// rate differs from the render rate
const resampleQuality = 4

// Buffer is fully decoded, render-ready audio: stereo, at the render rate,
// immutable once built and safe to share between voices.
type Buffer struct {
	id  string
	buf *beep.Buffer
}

// NewBuffer converts decoded data into a stereo buffer at rate. Mono data is
// duplicated to both sides; channels beyond the second are dropped.
func NewBuffer(id string, data *AudioData, rate beep.SampleRate) (*Buffer, error) {
	if data == nil || data.Frames() == 0 {
		return nil, ErrEmptyBuffer
	}
	if data.SampleRate <= 0 || rate <= 0 {
		return nil, ErrInvalidData
	}

	var s beep.Streamer = &pcmStreamer{data: data}
	native := beep.SampleRate(data.SampleRate)
	if native != rate {
		slog.Debug("resampling decoded audio",
			"id", id,
			"from_rate", data.SampleRate,
			"to_rate", int(rate))
		s = beep.Resample(resampleQuality, native, rate, s)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 3})
	buf.Append(s)
	if buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}

	slog.Debug("audio buffer built",
		"id", id,
		"frames", buf.Len(),
		"sample_rate", int(rate))

	return &Buffer{id: id, buf: buf}, nil
}

// ID returns the source identifier the buffer was built from
func (b *Buffer) ID() string {
	return b.id
}

// Len returns the length of the buffer in frames
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// SampleRate returns the rate the buffer was built for
func (b *Buffer) SampleRate() beep.SampleRate {
	return b.buf.Format().SampleRate
}

// Duration returns the playback length of one pass through the buffer
func (b *Buffer) Duration() time.Duration {
	return b.SampleRate().D(b.buf.Len())
}

// Once returns a streamer that plays the buffer a single time
func (b *Buffer) Once() beep.StreamSeeker {
	return b.buf.Streamer(0, b.buf.Len())
}

// Loop returns a streamer that repeats the buffer seamlessly forever
func (b *Buffer) Loop() beep.Streamer {
	return beep.Loop(-1, b.Once())
}

// Streamer returns a looping streamer rendered at rate, resampling when the
// buffer was built for a different rate
func (b *Buffer) Streamer(rate beep.SampleRate) beep.Streamer {
	if rate == b.SampleRate() {
		return b.Loop()
	}
	return beep.Resample(resampleQuality, b.SampleRate(), rate, b.Loop())
}

// pcmStreamer reads interleaved float32 frames as beep stereo samples
type pcmStreamer struct {
	data *AudioData
	pos  int
}

func (p *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := p.data.Frames()
	if p.pos >= frames {
		return 0, false
	}

	ch := p.data.Channels
	n := 0
	for n < len(samples) && p.pos < frames {
		i := p.pos * ch
		left := float64(p.data.Samples[i])
		right := left
		if ch > 1 {
			right = float64(p.data.Samples[i+1])
		}
		samples[n] = [2]float64{left, right}
		n++
		p.pos++
	}
	return n, true
}

func (p *pcmStreamer) Err() error {
	return nil
}
