package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctoth/soundscape/internal/engine"
	"github.com/ctoth/soundscape/internal/lifecycle"
	"github.com/ctoth/soundscape/internal/soundpack"
)

const sessionHelp = `commands:
  play <channel> [source]            start a channel (ambient channels default to their catalog sound)
  crossfade <channel> <source> [s]   fade to a new source, default duration from config
  toggle <rain|forest|ocean|fire>    start or stop an ambient sound at its catalog volume
  stop <channel|all>                 stop a channel or everything
  volume <channel> <0-100>           set a channel volume
  master <0-100>                     set the master volume
  preload <source>...                fetch and decode sources ahead of time
  hide | show                        suspend or resume output
  status                             show channels and volumes
  quit                               stop everything and exit
`

func newSessionCommand() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start an interactive mixing session",
		Long: `Start an interactive mixing session reading commands from stdin.

Audio starts with the first playback command. "hide" and "show" suspend and
resume output; SIGINT, SIGTERM, "quit" and end of input all tear it down.
Volumes are saved to the config file on exit unless --no-save is given.

Example:
  soundscape session
  > play music music/calm.mp3
  > toggle rain
  > crossfade music music/storm.mp3 4
  > quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, !noSave)
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save volumes to the config file on exit")
	return cmd
}

func runSession(cmd *cobra.Command, save bool) error {
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

	s := &session{
		cli:     cli,
		player:  p,
		adapter: lifecycle.NewAdapter(p.engine),
		out:     cmd.OutOrStdout(),
		prompt:  cli.isInteractive(cmd.InOrStdin()),
		save:    save,
	}

	slog.Info("session started", "session_id", cli.sessionID)
	return s.run(cmd.Context(), cmd.InOrStdin())
}

// session is one interactive run. All engine and adapter calls happen on the
// goroutine executing run.
type session struct {
	cli     *CLI
	player  *player
	adapter *lifecycle.Adapter
	out     io.Writer
	prompt  bool
	save    bool
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	events := make(chan lifecycle.Event, 1)
	stop := lifecycle.NotifySignals(events)
	defer stop()

	s.printPrompt()
	for {
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), s.teardown(context.WithoutCancel(ctx)))
		case ev := <-events:
			if ev == lifecycle.Teardown {
				return s.teardown(ctx)
			}
			if err := s.adapter.Handle(ctx, ev); err != nil {
				slog.Error("lifecycle event failed", "event", ev.String(), "error", err)
			}
		case line, ok := <-lines:
			if !ok {
				return s.teardown(ctx)
			}
			quit, err := s.exec(ctx, line)
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
			if quit {
				return s.teardown(ctx)
			}
			s.printPrompt()
		}
	}
}

// readLines delivers input lines until EOF or until done is closed, then
// closes the channel
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("session input ended with error", "error", err)
		}
	}()
	return lines
}

func (s *session) printPrompt() {
	if s.prompt {
		fmt.Fprint(s.out, "> ")
	}
}

// exec runs one command line and reports whether the session should end
func (s *session) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	slog.Debug("session command", "command", cmd, "args", args)

	e := s.player.engine
	switch cmd {
	case "help", "?":
		fmt.Fprint(s.out, sessionHelp)

	case "play":
		if len(args) < 1 || len(args) > 2 {
			return false, errors.New("usage: play <channel> [source]")
		}
		text := args[0]
		if len(args) == 2 {
			text += "=" + args[1]
		}
		t, err := parseTarget(text)
		if err != nil {
			return false, err
		}
		if err := s.gesture(ctx); err != nil {
			return false, err
		}
		if len(args) == 1 && t.hasVolume {
			if err := e.SetChannelVolume(t.channel, t.volume); err != nil {
				return false, err
			}
		}
		if err := e.Play(ctx, t.channel, t.source); err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "%s: playing %s\n", t.channel, t.source)

	case "crossfade", "xf":
		if len(args) < 2 || len(args) > 3 {
			return false, errors.New("usage: crossfade <channel> <source> [seconds]")
		}
		id, err := engine.ParseChannelID(args[0])
		if err != nil {
			return false, err
		}
		var d time.Duration
		if len(args) == 3 {
			secs, err := strconv.ParseFloat(args[2], 64)
			if err != nil || secs < 0 || math.IsInf(secs, 0) {
				return false, fmt.Errorf("invalid crossfade duration %q", args[2])
			}
			d = time.Duration(secs * float64(time.Second))
		}
		if err := s.gesture(ctx); err != nil {
			return false, err
		}
		if err := e.CrossfadeTo(ctx, id, args[1], d); err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "%s: crossfading to %s\n", id, args[1])

	case "toggle":
		if len(args) != 1 {
			return false, errors.New("usage: toggle <rain|forest|ocean|fire>")
		}
		sound, ok := soundpack.LookupAmbient(strings.ToLower(args[0]))
		if !ok {
			return false, fmt.Errorf("no ambient sound named %q", args[0])
		}
		id, err := engine.ParseChannelID(args[0])
		if err != nil {
			return false, err
		}
		if err := s.gesture(ctx); err != nil {
			return false, err
		}
		playing, err := e.Toggle(ctx, id, sound.ID, engine.Percent(sound.DefaultVolume))
		if err != nil {
			return false, err
		}
		state := "off"
		if playing {
			state = "on"
		}
		fmt.Fprintf(s.out, "%s: %s\n", sound.Name, state)

	case "stop":
		if len(args) != 1 {
			return false, errors.New("usage: stop <channel|all>")
		}
		if strings.EqualFold(args[0], "all") {
			return false, e.StopAll()
		}
		id, err := engine.ParseChannelID(args[0])
		if err != nil {
			return false, err
		}
		return false, e.Stop(id)

	case "volume", "vol":
		if len(args) != 2 {
			return false, errors.New("usage: volume <channel> <0-100>")
		}
		id, err := engine.ParseChannelID(args[0])
		if err != nil {
			return false, err
		}
		p, err := parsePercent(args[1])
		if err != nil {
			return false, err
		}
		if err := s.gesture(ctx); err != nil {
			return false, err
		}
		return false, e.SetChannelVolume(id, p)

	case "master":
		if len(args) != 1 {
			return false, errors.New("usage: master <0-100>")
		}
		p, err := parsePercent(args[0])
		if err != nil {
			return false, err
		}
		if err := s.gesture(ctx); err != nil {
			return false, err
		}
		return false, e.SetMasterVolume(p)

	case "preload":
		if len(args) == 0 {
			return false, errors.New("usage: preload <source>...")
		}
		if err := e.Preload(ctx, args...); err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "preloaded %d source(s)\n", len(args))

	case "hide", "show":
		ev, err := lifecycle.ParseEvent(cmd)
		if err != nil {
			return false, err
		}
		return false, s.adapter.Handle(ctx, ev)

	case "status":
		printStatus(s.out, e.Status())
		fmt.Fprintf(s.out, "cache: %d sources decoded, %d fetches\n", s.player.cache.Len(), s.player.cache.Fetches())

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

// gesture initializes the engine on the first command that should be heard
func (s *session) gesture(ctx context.Context) error {
	if s.adapter.Initialized() {
		return nil
	}
	if err := s.adapter.Handle(ctx, lifecycle.Gesture); err != nil {
		return err
	}
	st := s.player.engine.Status()
	fmt.Fprintf(s.out, "audio started (%s, %s)\n", st.Backend, st.State)
	return nil
}

// teardown remembers the live volumes, disposes the engine and saves preferences
func (s *session) teardown(ctx context.Context) error {
	initialized := s.adapter.Initialized()
	var master float64
	var channels map[string]float64
	if initialized {
		master, channels = s.volumes()
	}

	err := s.adapter.Handle(ctx, lifecycle.Teardown)

	if initialized && s.save {
		if saveErr := s.cli.savePreferences(master, channels); saveErr != nil {
			slog.Warn("failed to save preferences", "path", s.cli.configPath, "error", saveErr)
		}
	}

	slog.Info("session ended", "session_id", s.cli.sessionID)
	return err
}

// volumes reads the live master and channel volumes as percentages
func (s *session) volumes() (float64, map[string]float64) {
	e := s.player.engine
	channels := make(map[string]float64, len(engine.AllChannels))
	for _, id := range engine.AllChannels {
		channels[string(id)] = float64(e.ChannelVolume(id))
	}
	return float64(e.MasterVolume()), channels
}

func printStatus(w io.Writer, st engine.Status) {
	fmt.Fprintf(w, "state: %s  backend: %s  master: %d%%\n", st.State, st.Backend, st.Master)
	for _, ch := range st.Channels {
		line := fmt.Sprintf("  %-7s %3d%%  ", ch.ID, ch.Volume)
		if ch.Playing {
			line += "playing " + ch.Source
		} else {
			line += "stopped"
		}
		fmt.Fprintln(w, line)
	}
}
