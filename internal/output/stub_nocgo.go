//go:build !cgo

package output

import (
	"errors"
	"fmt"

	"github.com/gopxl/beep"
)

var errCGORequired = errors.New(`audio devices require CGO support.

This binary was built without CGO, so only the null output is available.

To fix this issue:
1. Ensure CGO_ENABLED=1 (this is the default for native builds)
2. Install a C compiler:
   - Linux: sudo apt-get install build-essential
   - macOS: xcode-select --install
   - Windows: Install MinGW or Visual Studio Build Tools
3. Then rebuild: go install github.com/ctoth/soundscape@latest`)

func newDeviceBackend(backendType string, rate beep.SampleRate) (Backend, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, backendType, errCGORequired)
}
