package output

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
)

func fakeDevices(available ...string) func(string, beep.SampleRate) (Backend, error) {
	return func(backendType string, rate beep.SampleRate) (Backend, error) {
		for _, a := range available {
			if a == backendType {
				return &namedBackend{ManualBackend: NewManualBackend(rate), name: backendType}, nil
			}
		}
		return nil, ErrBackendNotAvailable
	}
}

type namedBackend struct {
	*ManualBackend
	name string
}

func (n *namedBackend) Name() string { return n.name }

func TestBackendFactory_CreateBackend(t *testing.T) {
	tests := []struct {
		name        string
		backendType string
		isWSL       bool
		available   []string
		wantName    string
		wantErr     error
	}{
		{"empty defaults to auto", "", false, []string{BackendMalgo, BackendOto}, BackendMalgo, nil},
		{"auto prefers malgo", BackendAuto, false, []string{BackendMalgo, BackendOto}, BackendMalgo, nil},
		{"auto prefers oto under WSL", BackendAuto, true, []string{BackendMalgo, BackendOto}, BackendOto, nil},
		{"auto falls through to oto", BackendAuto, false, []string{BackendOto}, BackendOto, nil},
		{"auto falls back to null", BackendAuto, false, nil, BackendNull, nil},
		{"explicit malgo", BackendMalgo, false, []string{BackendMalgo}, BackendMalgo, nil},
		{"explicit oto unavailable", BackendOto, false, nil, "", ErrBackendCreationFailed},
		{"explicit null", BackendNull, false, nil, BackendNull, nil},
		{"unknown type", "pulseaudio", false, nil, "", ErrInvalidBackendType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewBackendFactoryWithDependencies(48000,
				func() bool { return tt.isWSL },
				fakeDevices(tt.available...))

			backend, err := factory.CreateBackend(tt.backendType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if backend.Name() != tt.wantName {
				t.Errorf("expected backend %q, got %q", tt.wantName, backend.Name())
			}
			if backend.SampleRate() != 48000 {
				t.Errorf("expected sample rate 48000, got %d", backend.SampleRate())
			}
		})
	}
}

func TestBackendFactory_IsValidBackendType(t *testing.T) {
	factory := NewBackendFactory(0)

	for _, valid := range []string{"", "auto", "malgo", "oto", "null"} {
		if !factory.IsValidBackendType(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []string{"system_command", "AUTO", "alsa"} {
		if factory.IsValidBackendType(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
	if factory.sampleRate != DefaultSampleRate {
		t.Errorf("expected default sample rate %d, got %d", DefaultSampleRate, factory.sampleRate)
	}
}

func TestDetectWSLFromData(t *testing.T) {
	tests := []struct {
		name        string
		procVersion string
		wslEnv      string
		want        bool
	}{
		{"env var set", "", "Ubuntu", true},
		{"microsoft kernel", "Linux version 5.15.90.1-microsoft-standard-WSL2", "", true},
		{"plain linux", "Linux version 6.1.0-18-amd64 (debian-kernel@lists.debian.org)", "", false},
		{"nothing", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectWSLFromData(tt.procVersion, tt.wslEnv); got != tt.want {
				t.Errorf("detectWSLFromData() = %v, want %v", got, tt.want)
			}
		})
	}
}
