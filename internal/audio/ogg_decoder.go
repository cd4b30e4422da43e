package audio

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jfreymuth/oggvorbis"
)

// OggDecoder handles Ogg Vorbis decoding, the format ambient loops ship in
type OggDecoder struct{}

// NewOggDecoder creates a new Ogg Vorbis decoder instance
func NewOggDecoder() *OggDecoder {
	slog.Debug("creating new Ogg Vorbis decoder instance")
	return &OggDecoder{}
}

// FormatName returns the name of the format this decoder handles
func (d *OggDecoder) FormatName() string {
	return "OGG"
}

// CanDecode checks if this decoder can handle the given filename
func (d *OggDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".ogg") || strings.HasSuffix(lower, ".oga")
}

// Decode reads a whole Vorbis stream
func (d *OggDecoder) Decode(reader io.Reader) (*AudioData, error) {
	slog.Debug("starting Ogg Vorbis decode operation")

	samples, format, err := oggvorbis.ReadAll(reader)
	if err != nil {
		slog.Error("failed to decode Ogg Vorbis stream", "error", err)
		return nil, ErrInvalidData
	}

	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		slog.Error("invalid Ogg Vorbis format parameters")
		return nil, ErrInvalidData
	}

	if len(samples) == 0 {
		slog.Error("no audio data found in Ogg Vorbis stream")
		return nil, ErrInvalidData
	}

	audioData := &AudioData{
		Samples:    samples,
		Channels:   format.Channels,
		SampleRate: format.SampleRate,
	}

	slog.Info("Ogg Vorbis decode completed successfully",
		"frames", audioData.Frames(),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"duration", audioData.Duration())

	return audioData, nil
}
