package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// contentTypes maps a detected MIME type to the format that decodes it.
// mimetype also matches the aliases of each entry (audio/x-wav, audio/x-aiff, ...).
var contentTypes = []struct {
	mime   string
	format string
}{
	{"audio/wav", "WAV"},
	{"audio/mpeg", "MP3"},
	{"audio/aiff", "AIFF"},
	{"audio/ogg", "OGG"},
	{"application/ogg", "OGG"},
}

// DecoderRegistry picks a decoder for encoded audio, by content first and
// then by file name
type DecoderRegistry struct {
	formats map[string]Decoder
	order   []string
}

// NewDecoderRegistry creates a registry with no decoders
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{formats: make(map[string]Decoder)}
}

// NewDefaultRegistry creates a registry with the Ogg Vorbis, MP3, WAV and AIFF decoders
func NewDefaultRegistry() *DecoderRegistry {
	r := NewDecoderRegistry()
	r.Register(NewOggDecoder())
	r.Register(NewMp3Decoder())
	r.Register(NewWavDecoder())
	r.Register(NewAiffDecoder())

	slog.Debug("decoder registry ready", "formats", r.order)
	return r
}

// Register adds d under its format name, replacing any decoder already
// registered for that format
func (r *DecoderRegistry) Register(d Decoder) {
	if d == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}
	format := strings.ToUpper(d.FormatName())
	if _, ok := r.formats[format]; !ok {
		r.order = append(r.order, format)
	}
	r.formats[format] = d
}

// GetSupportedFormats returns the registered format names in registration order
func (r *DecoderRegistry) GetSupportedFormats() []string {
	return append([]string(nil), r.order...)
}

// Detect returns the decoder for data. The content decides when it is
// recognisable; otherwise the first decoder claiming name's extension wins.
func (r *DecoderRegistry) Detect(name string, data []byte) (Decoder, error) {
	if len(data) > 0 {
		mtype := mimetype.Detect(data)
		for m := mtype; m != nil; m = m.Parent() {
			for _, ct := range contentTypes {
				if !m.Is(ct.mime) {
					continue
				}
				if d, ok := r.formats[ct.format]; ok {
					slog.Debug("format detected by content",
						"name", name,
						"mime", mtype.String(),
						"format", ct.format)
					return d, nil
				}
			}
		}
		slog.Debug("content not recognised, trying extension", "name", name, "mime", mtype.String())
	}

	for _, format := range r.order {
		if d := r.formats[format]; d.CanDecode(name) {
			slog.Debug("format detected by extension", "name", name, "format", format)
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Decode detects the format of data and decodes it. The format name is
// returned even when decoding fails, empty when no decoder matched.
func (r *DecoderRegistry) Decode(name string, data []byte) (*AudioData, string, error) {
	d, err := r.Detect(name, data)
	if err != nil {
		slog.Warn("no decoder for source", "name", name, "bytes", len(data))
		return nil, "", err
	}

	format := d.FormatName()
	audioData, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Error("decode failed", "name", name, "format", format, "error", err)
		return nil, format, err
	}
	return audioData, format, nil
}
