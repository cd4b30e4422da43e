package audio

import (
	"errors"
	"io"
	"time"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// AudioData is decoded audio held as interleaved float32 samples in [-1, 1]
type AudioData struct {
	Samples    []float32 // Interleaved PCM samples
	Channels   int       // Number of audio channels
	SampleRate int       // Sample rate in Hz
}

// Frames returns the number of sample frames held
func (d *AudioData) Frames() int {
	if d == nil || d.Channels <= 0 {
		return 0
	}
	return len(d.Samples) / d.Channels
}

// Duration returns the playback length of the data at its own sample rate
func (d *AudioData) Duration() time.Duration {
	if d == nil || d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(d.Frames()) * time.Second / time.Duration(d.SampleRate)
}

// Decoder interface for audio format decoding
type Decoder interface {
	// Decode reads audio data from reader and returns decoded PCM data
	Decode(reader io.Reader) (*AudioData, error)

	// CanDecode checks if this decoder can handle the given filename
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles
	FormatName() string
}

// intScale returns the divisor that maps a signed integer sample of the
// given bit depth into [-1, 1)
func intScale(bits int) float32 {
	return float32(int64(1) << (bits - 1))
}
