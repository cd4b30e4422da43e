package cli

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/term"
)

type fakeTerminal struct {
	calls []int
	tty   bool
}

func (f *fakeTerminal) IsTerminal(fd int) bool {
	f.calls = append(f.calls, fd)
	return f.tty
}

func TestIsInteractive(t *testing.T) {
	t.Run("non-file readers are never interactive", func(t *testing.T) {
		detector := &fakeTerminal{tty: true}
		cli := NewCLI()
		cli.terminalDetector = detector

		if cli.isInteractive(strings.NewReader("play rain\n")) {
			t.Error("expected a string reader to be non-interactive")
		}
		if len(detector.calls) != 0 {
			t.Errorf("detector should not be consulted, got %v", detector.calls)
		}
	})

	t.Run("files ask the detector", func(t *testing.T) {
		for _, tty := range []bool{true, false} {
			detector := &fakeTerminal{tty: tty}
			cli := NewCLI()
			cli.terminalDetector = detector

			if got := cli.isInteractive(os.Stdin); got != tty {
				t.Errorf("expected %v, got %v", tty, got)
			}
			if len(detector.calls) != 1 || detector.calls[0] != int(os.Stdin.Fd()) {
				t.Errorf("expected one call with stdin fd, got %v", detector.calls)
			}
		}
	})

	t.Run("default detector matches x/term", func(t *testing.T) {
		cli := NewCLI()
		if got, want := cli.isInteractive(os.Stdin), term.IsTerminal(int(os.Stdin.Fd())); got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestDefaultTerminalDetectorInvalidFd(t *testing.T) {
	if (&DefaultTerminalDetector{}).IsTerminal(-1) {
		t.Error("invalid fd should not be a terminal")
	}
}
