//go:build cgo

package output

import (
	"fmt"

	"github.com/gopxl/beep"
)

// newDeviceBackend opens the named hardware backend
func newDeviceBackend(backendType string, rate beep.SampleRate) (Backend, error) {
	switch backendType {
	case BackendMalgo:
		return NewMalgoBackend(rate)
	case BackendOto:
		return NewOtoBackend(rate)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}
}
