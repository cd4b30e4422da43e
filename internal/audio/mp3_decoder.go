package audio

import (
	"encoding/binary"
	"io"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder handles MP3 audio format decoding
type Mp3Decoder struct{}

// NewMp3Decoder creates a new MP3 decoder instance
func NewMp3Decoder() *Mp3Decoder {
	slog.Debug("creating new MP3 decoder instance")
	return &Mp3Decoder{}
}

// Decode reads MP3 audio data from reader and returns normalized stereo samples
func (d *Mp3Decoder) Decode(reader io.Reader) (*AudioData, error) {
	slog.Debug("starting MP3 decode operation")

	decoder, err := mp3.NewDecoder(reader)
	if err != nil {
		slog.Error("failed to create MP3 decoder", "error", err)
		return nil, ErrInvalidData
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		slog.Error("invalid MP3 sample rate", "sample_rate", sampleRate)
		return nil, ErrInvalidData
	}

	// go-mp3 always produces 16-bit little-endian stereo
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		slog.Error("failed to read MP3 PCM data", "error", err)
		return nil, ErrReadFailure
	}

	if len(pcm) < 4 {
		slog.Error("no audio data found in MP3 file")
		return nil, ErrInvalidData
	}

	scale := intScale(16)
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / scale
	}

	audioData := &AudioData{
		Samples:    samples,
		Channels:   2,
		SampleRate: sampleRate,
	}

	slog.Info("MP3 decode completed successfully",
		"frames", audioData.Frames(),
		"sample_rate", audioData.SampleRate,
		"duration", audioData.Duration())

	return audioData, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *Mp3Decoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".mpeg")
}

// FormatName returns the name of the format this decoder handles
func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}
