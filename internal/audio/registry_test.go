package audio

import (
	"errors"
	"reflect"
	"testing"
)

// oggHeader returns the start of an Ogg page, with a Vorbis identification
// packet when vorbis is set
func oggHeader(vorbis bool) []byte {
	page := make([]byte, 64)
	copy(page, "OggS")
	if vorbis {
		copy(page[28:], "\x01vorbis")
	}
	return page
}

func id3Header() []byte {
	header := make([]byte, 64)
	copy(header, "ID3\x03\x00\x00\x00\x00\x00\x00")
	return header
}

func TestDefaultRegistryFormats(t *testing.T) {
	got := NewDefaultRegistry().GetSupportedFormats()
	want := []string{"OGG", "MP3", "WAV", "AIFF"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected formats %v, got %v", want, got)
	}
}

func TestDetectByContent(t *testing.T) {
	registry := NewDefaultRegistry()

	testCases := []struct {
		name   string
		source string
		data   []byte
		want   string
	}{
		{"wav named as ogg", "audio/rain.ogg", generateTestWAV(1, 8000, []int16{1, 2, 3}), "WAV"},
		{"vorbis without extension", "https://example.com/stream", oggHeader(true), "OGG"},
		{"bare ogg container", "audio/fire.mp3", oggHeader(false), "OGG"},
		{"mp3 with id3 tag", "music/track.wav", id3Header(), "MP3"},
		{"aiff", "audio/ocean.bin", createMinimalAiffFile(8000, 1, 16, 4), "AIFF"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := registry.Detect(tc.source, tc.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.FormatName() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, d.FormatName())
			}
		})
	}
}

func TestDetectFallsBackToExtension(t *testing.T) {
	registry := NewDefaultRegistry()
	text := []byte("this is not audio at all")

	testCases := []struct {
		source string
		data   []byte
		want   string
	}{
		{"audio/rain.ogg", text, "OGG"},
		{"audio/forest.OGA", text, "OGG"},
		{"music/song.MP3", text, "MP3"},
		{"audio/fire.wav", nil, "WAV"},
		{"audio/ocean.aif", text, "AIFF"},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			d, err := registry.Detect(tc.source, tc.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.FormatName() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, d.FormatName())
			}
		})
	}
}

func TestDetectUnsupported(t *testing.T) {
	testCases := []struct {
		name     string
		registry *DecoderRegistry
		source   string
		data     []byte
	}{
		{"unknown content and extension", NewDefaultRegistry(), "notes.txt", []byte("hello")},
		{"empty registry", NewDecoderRegistry(), "rain.ogg", oggHeader(true)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := tc.registry.Detect(tc.source, tc.data)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
			if d != nil {
				t.Errorf("expected no decoder, got %s", d.FormatName())
			}
		})
	}
}

func TestRegisterReplacesFormat(t *testing.T) {
	registry := NewDefaultRegistry()
	replacement := &MockDecoder{formatName: "wav", extensions: []string{".wav"}}

	registry.Register(replacement)
	registry.Register(nil)

	want := []string{"OGG", "MP3", "WAV", "AIFF"}
	if got := registry.GetSupportedFormats(); !reflect.DeepEqual(got, want) {
		t.Errorf("replacing a decoder should keep the order %v, got %v", want, got)
	}

	d, err := registry.Detect("rain.wav", generateTestWAV(1, 8000, []int16{1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != Decoder(replacement) {
		t.Errorf("expected the replacement decoder, got %T", d)
	}
}

func TestRegistryDecode(t *testing.T) {
	registry := NewDefaultRegistry()

	t.Run("decodes by content", func(t *testing.T) {
		data, format, err := registry.Decode("named-wrong.ogg", generateTestWAV(2, 8000, []int16{16384, -16384}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if format != "WAV" {
			t.Errorf("expected WAV, got %q", format)
		}
		if data.SampleRate != 8000 || data.Channels != 2 || data.Frames() != 1 {
			t.Errorf("unexpected result: rate %d channels %d frames %d",
				data.SampleRate, data.Channels, data.Frames())
		}
		if data.Samples[0] != 0.5 || data.Samples[1] != -0.5 {
			t.Errorf("unexpected samples %v", data.Samples)
		}
	})

	t.Run("reports the format that failed", func(t *testing.T) {
		_, format, err := registry.Decode("audio/rain.wav", []byte("truncated"))
		if err == nil {
			t.Fatal("expected an error for a broken file")
		}
		if format != "WAV" {
			t.Errorf("expected the WAV decoder to be blamed, got %q", format)
		}
	})

	t.Run("no decoder", func(t *testing.T) {
		_, format, err := registry.Decode("notes.txt", []byte("hello"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
		if format != "" {
			t.Errorf("expected no format, got %q", format)
		}
	})

	t.Run("decoder error is returned", func(t *testing.T) {
		r := NewDecoderRegistry()
		r.Register(&MockDecoder{formatName: "TEST", extensions: []string{".test"}, shouldFail: true})

		_, format, err := r.Decode("clip.test", []byte("payload"))
		if !errors.Is(err, ErrUnsupportedFormat) || format != "TEST" {
			t.Errorf("expected the mock failure from TEST, got %q %v", format, err)
		}
	})
}
