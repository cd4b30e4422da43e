package audio

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/youpy/go-wav"
)

// WavDecoder handles WAV audio format decoding
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance
func NewWavDecoder() *WavDecoder {
	slog.Debug("creating new WAV decoder instance")
	return &WavDecoder{}
}

// Decode reads WAV audio data from reader and returns normalized samples
func (d *WavDecoder) Decode(reader io.Reader) (*AudioData, error) {
	slog.Debug("starting WAV decode operation")

	// youpy/go-wav needs a ReadSeeker
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read WAV data", "error", err)
		return nil, ErrReadFailure
	}

	if len(data) == 0 {
		slog.Error("empty WAV data")
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))

	format, err := wavReader.Format()
	if err != nil {
		slog.Error("failed to read WAV format", "error", err)
		return nil, ErrInvalidData
	}

	slog.Debug("WAV format detected",
		"sample_rate", format.SampleRate,
		"channels", format.NumChannels,
		"bits_per_sample", format.BitsPerSample)

	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Error("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	bits := int(format.BitsPerSample)
	switch bits {
	case 8, 16, 24, 32:
	default:
		slog.Error("unsupported bit depth", "bits", bits)
		return nil, ErrUnsupportedFormat
	}

	channels := int(format.NumChannels)
	scale := intScale(bits)
	var samples []float32

	for {
		chunk, err := wavReader.ReadSamples()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("failed to read WAV samples", "error", err)
			return nil, ErrReadFailure
		}
		if len(chunk) == 0 {
			break
		}

		for _, sample := range chunk {
			for ch := 0; ch < channels; ch++ {
				var val int
				if ch < len(sample.Values) {
					val = sample.Values[ch]
				}
				// 8-bit WAV is unsigned
				if bits == 8 {
					val -= 128
				}
				samples = append(samples, float32(val)/scale)
			}
		}
	}

	if len(samples) == 0 {
		slog.Error("no audio data found in WAV file")
		return nil, ErrInvalidData
	}

	audioData := &AudioData{
		Samples:    samples,
		Channels:   channels,
		SampleRate: int(format.SampleRate),
	}

	slog.Info("WAV decode completed successfully",
		"frames", audioData.Frames(),
		"channels", audioData.Channels,
		"sample_rate", audioData.SampleRate,
		"bits_per_sample", bits,
		"duration", audioData.Duration())

	return audioData, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles
func (d *WavDecoder) FormatName() string {
	return "WAV"
}
