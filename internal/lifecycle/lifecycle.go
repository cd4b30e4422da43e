// Package lifecycle turns host events into engine lifecycle calls: the first
// user gesture initializes the engine, visibility changes suspend and resume
// it, and teardown disposes it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Event is something the host reports
type Event int

const (
	Gesture Event = iota
	Hidden
	Visible
	Teardown
)

func (e Event) String() string {
	switch e {
	case Gesture:
		return "gesture"
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	case Teardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// ParseEvent maps a host command name to an event
func ParseEvent(s string) (Event, error) {
	switch s {
	case "gesture", "start":
		return Gesture, nil
	case "hidden", "hide":
		return Hidden, nil
	case "visible", "show":
		return Visible, nil
	case "teardown", "quit", "exit":
		return Teardown, nil
	}
	return 0, fmt.Errorf("unknown lifecycle event %q", s)
}

// Controller is the part of the engine the adapter drives
type Controller interface {
	Initialize(ctx context.Context) error
	Suspend() error
	Resume() error
	Dispose() error
}

// Adapter applies host events to a Controller, in order, from one goroutine
type Adapter struct {
	ctrl        Controller
	initialized bool
	done        bool
}

// NewAdapter creates an adapter for ctrl
func NewAdapter(ctrl Controller) *Adapter {
	return &Adapter{ctrl: ctrl}
}

// Initialized reports whether a gesture has initialized the controller
func (a *Adapter) Initialized() bool {
	return a.initialized
}

// Done reports whether teardown has been handled
func (a *Adapter) Done() bool {
	return a.done
}

// Handle applies one event. Events other than Gesture that arrive before
// initialization are ignored, as is everything after Teardown.
func (a *Adapter) Handle(ctx context.Context, ev Event) error {
	if a.done {
		slog.Debug("lifecycle event after teardown ignored", "event", ev.String())
		return nil
	}

	slog.Debug("lifecycle event", "event", ev.String(), "initialized", a.initialized)

	switch ev {
	case Gesture:
		if err := a.ctrl.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize on gesture: %w", err)
		}
		a.initialized = true
		return nil
	case Teardown:
		a.done = true
		if err := a.ctrl.Dispose(); err != nil {
			return fmt.Errorf("dispose on teardown: %w", err)
		}
		return nil
	}

	if !a.initialized {
		slog.Debug("lifecycle event before initialization ignored", "event", ev.String())
		return nil
	}

	switch ev {
	case Hidden:
		return a.ctrl.Suspend()
	case Visible:
		return a.ctrl.Resume()
	}
	return fmt.Errorf("unknown lifecycle event %d", int(ev))
}

// Run handles events until Teardown, the channel closes or ctx is done. The
// controller is disposed in every case. Errors from individual events are
// logged and do not stop the loop.
func (a *Adapter) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("lifecycle adapter stopping", "reason", ctx.Err())
			return errors.Join(ctx.Err(), a.teardown(context.WithoutCancel(ctx)))
		case ev, ok := <-events:
			if !ok {
				return a.teardown(ctx)
			}
			if err := a.Handle(ctx, ev); err != nil {
				slog.Error("lifecycle event failed", "event", ev.String(), "error", err)
			}
			if a.done {
				return nil
			}
		}
	}
}

func (a *Adapter) teardown(ctx context.Context) error {
	if a.done {
		return nil
	}
	return a.Handle(ctx, Teardown)
}

// NotifySignals forwards SIGINT and SIGTERM to events as Teardown until the
// returned stop function is called
func NotifySignals(events chan<- Event) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	quit := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigs:
				slog.Info("received signal, tearing down", "signal", sig.String())
				select {
				case events <- Teardown:
				case <-quit:
					return
				}
			case <-quit:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(quit)
	}
}
