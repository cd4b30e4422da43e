package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctoth/soundscape/internal/tracking"
)

// historyReport is everything the history command shows
type historyReport struct {
	Summary     *tracking.UsageSummary       `json:"summary"`
	Sources     []tracking.SourceUsage       `json:"sources"`
	Channels    []tracking.ChannelStats      `json:"channels"`
	Unavailable []tracking.UnavailableSource `json:"unavailable"`
}

type historyOptions struct {
	days    int
	preset  string
	since   string
	channel string
	limit   int
	asJSON  bool
}

func newHistoryCommand() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show what has been played",
		Long: `Show playback history: a summary, the most played sources, per-channel
statistics and sources that failed to load.

Examples:
  soundscape history                     # last 7 days
  soundscape history --preset today
  soundscape history --since "last monday"
  soundscape history --channel music --limit 5
  soundscape history --days 0 --json     # all time, machine readable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.days, "days", 7, "Number of days to include (0 = all time)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Date preset (today, yesterday, week, last-week, month, last-month, all)")
	cmd.Flags().StringVar(&opts.since, "since", "", `Start time in natural language, e.g. "2 days ago"`)
	cmd.Flags().StringVar(&opts.channel, "channel", "", "Only include one channel")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Maximum sources to list")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the report as JSON")

	return cmd
}

// buildFilter turns command options into a query filter
func (o historyOptions) buildFilter() (tracking.QueryFilter, error) {
	filter := tracking.QueryFilter{
		Days:       o.days,
		DatePreset: o.preset,
		Limit:      o.limit,
	}

	if o.preset != "" {
		if _, _, err := tracking.ParseDatePreset(o.preset, time.Now()); err != nil {
			return filter, err
		}
	}

	if o.since != "" {
		start, err := tracking.ParseNaturalDate(o.since)
		if err != nil {
			return filter, err
		}
		filter.StartTime = &start
		filter.Days = 0
	}

	if o.channel != "" {
		filter.Channel = strings.ToLower(strings.TrimSpace(o.channel))
	}

	return filter, nil
}

func runHistory(cmd *cobra.Command, opts historyOptions) error {
	slog.Debug("running history command",
		"days", opts.days, "preset", opts.preset, "since", opts.since, "channel", opts.channel)

	filter, err := opts.buildFilter()
	if err != nil {
		return err
	}

	cli, err := mustCLI(cmd)
	if err != nil {
		return err
	}
	cfg, err := cli.setup(cmd)
	if err != nil {
		return err
	}

	db := cli.openHistory(cfg)
	if db == nil {
		return fmt.Errorf("playback history is not enabled or the database is not available")
	}

	var report historyReport
	if report.Summary, err = tracking.GetUsageSummary(db, filter); err != nil {
		return err
	}
	if report.Sources, err = tracking.GetSourceUsage(db, filter); err != nil {
		return err
	}
	if report.Channels, err = tracking.GetChannelStats(db, filter); err != nil {
		return err
	}
	if report.Unavailable, err = tracking.GetUnavailableSources(db, filter); err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printHistory(cmd.OutOrStdout(), report)
	return nil
}

func printHistory(w io.Writer, r historyReport) {
	s := r.Summary
	if s.TotalEvents == 0 {
		fmt.Fprintln(w, "No playback recorded for this period.")
		return
	}

	fmt.Fprintf(w, "%d events over %d session(s): %d plays, %d crossfades, %d stops, %d load failures\n",
		s.TotalEvents, s.Sessions, s.Plays, s.Crossfades, s.Stops, s.LoadFailures)

	if len(r.Sources) > 0 {
		fmt.Fprintf(w, "\nMost played (%d unique):\n", s.UniqueSources)
		for _, src := range r.Sources {
			fmt.Fprintf(w, "  %-40s %3d plays %3d crossfades  [%s]  last %s\n",
				src.Source, src.Plays, src.Crossfades, strings.Join(src.Channels, ","),
				src.LastPlayed.Format("2006-01-02 15:04"))
		}
	}

	if len(r.Channels) > 0 {
		fmt.Fprintln(w, "\nChannels:")
		for _, ch := range r.Channels {
			fmt.Fprintf(w, "  %-7s %3d plays %3d crossfades %3d stops  avg volume %.0f%%\n",
				ch.Channel, ch.Plays, ch.Crossfades, ch.Stops, ch.AverageVolume)
		}
	}

	if len(r.Unavailable) > 0 {
		fmt.Fprintln(w, "\nUnavailable sources:")
		for _, u := range r.Unavailable {
			fmt.Fprintf(w, "  %-40s %3d failures  [%s]  %s\n",
				u.Source, u.Failures, strings.Join(u.Channels, ","), u.LastError)
		}
	}
}
