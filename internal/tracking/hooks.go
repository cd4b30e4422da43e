package tracking

import (
	"log/slog"

	"github.com/ctoth/soundscape/internal/engine"
)

// SlogHook provides structured logging of engine events for debugging
type SlogHook struct {
	logger *slog.Logger
}

// NewSlogHook creates a new SlogHook with the given logger
// If logger is nil, uses the default logger
func NewSlogHook(logger *slog.Logger) *SlogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHook{
		logger: logger,
	}
}

// GetHook returns the EventHook function for use with the engine
func (s *SlogHook) GetHook() engine.EventHook {
	return func(ev engine.Event) {
		attrs := []any{
			"kind", ev.Kind.String(),
			"channel", string(ev.Channel),
			"source", ev.Source,
			"volume", ev.Volume,
		}
		if ev.Err != nil {
			attrs = append(attrs, "error", ev.Err)
		}
		s.logger.Debug("engine event", attrs...)
	}
}

// NopHook provides a no-operation hook for disabled modes
type NopHook struct{}

// NewNopHook creates a new NopHook that does nothing
func NewNopHook() *NopHook {
	return &NopHook{}
}

// GetHook returns the EventHook function that does nothing
func (n *NopHook) GetHook() engine.EventHook {
	return func(engine.Event) {}
}
