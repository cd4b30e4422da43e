package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctoth/soundscape/internal/lifecycle"
)

func newPlayCommand() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "play <channel[=source][@volume]>...",
		Short: "Play channels until interrupted",
		Long: `Play one or more channels until interrupted or for a fixed duration.

Ambient channels without a source play their catalog sound at its catalog
volume. The music channel always needs a source.

Examples:
  soundscape play rain fire@20
  soundscape play music=$HOME/music/calm.mp3@50 ocean --duration 30m
  soundscape play music=https://example.com/track.ogg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args, duration)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	return cmd
}

func runPlay(cmd *cobra.Command, args []string, duration time.Duration) error {
	slog.Debug("running play command", "targets", args, "duration", duration)

	if duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", duration)
	}

	targets := make([]target, 0, len(args))
	for _, arg := range args {
		t, err := parseTarget(arg)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	cli, err := mustCLI(cmd)
	if err != nil {
		return err
	}
	cfg, err := cli.setup(cmd)
	if err != nil {
		return err
	}
	p, err := cli.newPlayer(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	adapter := lifecycle.NewAdapter(p.engine)
	if err := adapter.Handle(ctx, lifecycle.Gesture); err != nil {
		return errors.Join(err, adapter.Handle(ctx, lifecycle.Teardown))
	}

	e := p.engine
	for _, t := range targets {
		if t.hasVolume {
			if err := e.SetChannelVolume(t.channel, t.volume); err != nil {
				return errors.Join(err, adapter.Handle(ctx, lifecycle.Teardown))
			}
		}
		if err := e.Play(ctx, t.channel, t.source); err != nil {
			return errors.Join(err, adapter.Handle(ctx, lifecycle.Teardown))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: playing %s\n", t.channel, t.source)
	}

	events := make(chan lifecycle.Event, 1)
	stop := lifecycle.NotifySignals(events)
	defer stop()

	runCtx := ctx
	if duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	err = adapter.Run(runCtx, events)
	if duration > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = withoutDeadline(err)
	}
	slog.Info("play finished", "error", err)
	return err
}

// withoutDeadline drops the context.DeadlineExceeded a timed run ends with,
// keeping any teardown error joined to it
func withoutDeadline(err error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	var rest []error
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, context.DeadlineExceeded) {
			rest = append(rest, e)
		}
	}
	return errors.Join(rest...)
}
