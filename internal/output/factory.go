package output

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gopxl/beep"
)

// Backend type names accepted by the factory
const (
	BackendAuto  = "auto"
	BackendMalgo = "malgo"
	BackendOto   = "oto"
	BackendNull  = "null"
)

// DefaultSampleRate is the render rate used when none is configured
const DefaultSampleRate = beep.SampleRate(44100)

// Factory errors
var (
	ErrInvalidBackendType    = errors.New("invalid backend type")
	ErrBackendCreationFailed = errors.New("backend creation failed")
)

// BackendFactory creates Backend instances based on configuration
type BackendFactory interface {
	CreateBackend(backendType string) (Backend, error)
	GetSupportedBackends() []string
	IsValidBackendType(backendType string) bool
}

// DefaultBackendFactory implements BackendFactory with platform detection
type DefaultBackendFactory struct {
	sampleRate beep.SampleRate
	isWSLFunc  func() bool
	newDevice  func(backendType string, rate beep.SampleRate) (Backend, error)
}

// NewBackendFactory creates a factory for backends running at sampleRate
func NewBackendFactory(sampleRate beep.SampleRate) *DefaultBackendFactory {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &DefaultBackendFactory{
		sampleRate: sampleRate,
		isWSLFunc:  IsWSL,
		newDevice:  newDeviceBackend,
	}
}

// NewBackendFactoryWithDependencies creates a factory with injected dependencies for testing
func NewBackendFactoryWithDependencies(sampleRate beep.SampleRate, isWSLFunc func() bool, newDevice func(string, beep.SampleRate) (Backend, error)) *DefaultBackendFactory {
	f := NewBackendFactory(sampleRate)
	f.isWSLFunc = isWSLFunc
	f.newDevice = newDevice
	return f
}

// CreateBackend creates a Backend instance based on the specified type
func (f *DefaultBackendFactory) CreateBackend(backendType string) (Backend, error) {
	if backendType == "" {
		backendType = BackendAuto
	}

	slog.Debug("creating audio backend", "type", backendType, "sample_rate", int(f.sampleRate))

	switch backendType {
	case BackendAuto:
		return f.createAutoBackend()
	case BackendMalgo, BackendOto:
		backend, err := f.newDevice(backendType, f.sampleRate)
		if err != nil {
			slog.Error("failed to create device backend", "type", backendType, "error", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrBackendCreationFailed, backendType, err)
		}
		return backend, nil
	case BackendNull:
		return NewNullBackend(f.sampleRate), nil
	default:
		slog.Error("invalid backend type requested", "type", backendType)
		return nil, fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}
}

// GetSupportedBackends returns a list of all supported backend types
func (f *DefaultBackendFactory) GetSupportedBackends() []string {
	return []string{BackendAuto, BackendMalgo, BackendOto, BackendNull}
}

// IsValidBackendType checks if a backend type is supported
func (f *DefaultBackendFactory) IsValidBackendType(backendType string) bool {
	if backendType == "" {
		return true
	}
	for _, supported := range f.GetSupportedBackends() {
		if backendType == supported {
			return true
		}
	}
	return false
}

// createAutoBackend tries the device backends in platform preference order
// and falls back to the null backend when no device can be opened
func (f *DefaultBackendFactory) createAutoBackend() (Backend, error) {
	isWSL := f.isWSLFunc()
	candidates := preferredDevices(isWSL)
	slog.Debug("auto-detecting output backend", "is_wsl", isWSL, "candidates", candidates)

	for _, candidate := range candidates {
		backend, err := f.newDevice(candidate, f.sampleRate)
		if err == nil {
			slog.Info("output backend selected", "type", candidate)
			return backend, nil
		}
		slog.Warn("output backend unavailable, trying next", "type", candidate, "error", err)
	}

	slog.Warn("no audio device available, rendering to null output")
	return NewNullBackend(f.sampleRate), nil
}
