package audio

import (
	"bytes"
	"errors"
	"testing"
)

func TestOggDecoderInterface(t *testing.T) {
	decoder := NewOggDecoder()
	var _ Decoder = decoder

	if decoder.FormatName() != "OGG" {
		t.Errorf("expected format name 'OGG', got '%s'", decoder.FormatName())
	}
}

func TestOggDecoderCanDecode(t *testing.T) {
	decoder := NewOggDecoder()

	testCases := []struct {
		filename string
		expected bool
	}{
		{"rain.ogg", true},
		{"/audio/ocean.OGG", true},
		{"fire.oga", true},
		{"forest.mp3", false},
		{"ogg", false},
	}

	for _, tc := range testCases {
		if got := decoder.CanDecode(tc.filename); got != tc.expected {
			t.Errorf("CanDecode('%s') = %v, expected %v", tc.filename, got, tc.expected)
		}
	}
}

func TestOggDecoderRejectsGarbage(t *testing.T) {
	decoder := NewOggDecoder()

	data, err := decoder.Decode(bytes.NewReader([]byte("OggS but not really a vorbis stream")))
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	if data != nil {
		t.Error("expected nil data on error")
	}
}
