package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// TerminalDetector decides whether a file descriptor is an interactive terminal
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector asks golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)
	slog.Debug("terminal detection result", "fd", fd, "is_terminal", isTerminal)
	return isTerminal
}

// isInteractive reports whether the session input is a terminal a person is
// typing into. Pipes and test readers never are.
func (c *CLI) isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	return c.terminalDetector.IsTerminal(int(f.Fd()))
}
