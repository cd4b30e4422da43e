package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// AiffDecoder handles AIFF audio format decoding
type AiffDecoder struct{}

// NewAiffDecoder creates a new AIFF decoder instance
func NewAiffDecoder() *AiffDecoder {
	slog.Debug("creating new AIFF decoder instance")
	return &AiffDecoder{}
}

// FormatName returns the name of the format this decoder handles
func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}

// CanDecode checks if this decoder can handle the given filename
func (d *AiffDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif")
}

// Decode reads AIFF audio data from reader and returns normalized samples
func (d *AiffDecoder) Decode(reader io.Reader) (*AudioData, error) {
	slog.Debug("starting AIFF decode operation")

	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read AIFF data", "error", err)
		return nil, ErrReadFailure
	}

	if len(data) == 0 {
		slog.Error("empty AIFF data")
		return nil, ErrInvalidData
	}

	decoder := aiff.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		slog.Error("invalid AIFF file format")
		return nil, ErrInvalidData
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.SampleBitDepth())

	slog.Debug("AIFF format detected",
		"sample_rate", sampleRate,
		"channels", channels,
		"bits_per_sample", bitDepth)

	if channels == 0 || sampleRate == 0 {
		slog.Error("invalid AIFF format parameters",
			"channels", channels,
			"sample_rate", sampleRate)
		return nil, ErrInvalidData
	}

	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		slog.Error("unsupported bit depth", "bits", bitDepth)
		return nil, ErrUnsupportedFormat
	}

	pcmBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		slog.Error("failed to read AIFF samples", "error", err)
		return nil, ErrReadFailure
	}

	if pcmBuffer == nil || len(pcmBuffer.Data) == 0 {
		slog.Error("no audio data found in AIFF file")
		return nil, ErrInvalidData
	}

	audioData := &AudioData{
		Samples:    normalizeIntBuffer(pcmBuffer, bitDepth),
		Channels:   channels,
		SampleRate: sampleRate,
	}

	slog.Info("AIFF decode completed successfully",
		"frames", audioData.Frames(),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"duration", audioData.Duration())

	return audioData, nil
}

// normalizeIntBuffer scales integer PCM of the given bit depth to [-1, 1)
func normalizeIntBuffer(buf *goaudio.IntBuffer, bitDepth int) []float32 {
	scale := intScale(bitDepth)
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return samples
}
