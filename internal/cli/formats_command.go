package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/output"
	"github.com/ctoth/soundscape/internal/soundpack"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported audio formats, backends and ambient sounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "Audio formats:")
			for _, format := range audio.NewDefaultRegistry().GetSupportedFormats() {
				fmt.Fprintf(w, "  %s\n", format)
			}

			fmt.Fprintln(w, "Backends:")
			for _, backend := range output.NewBackendFactory(output.DefaultSampleRate).GetSupportedBackends() {
				fmt.Fprintf(w, "  %s\n", backend)
			}

			names := make([]string, 0, len(soundpack.Ambient))
			for name := range soundpack.Ambient {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Fprintln(w, "Ambient sounds:")
			for _, name := range names {
				sound := soundpack.Ambient[name]
				fmt.Fprintf(w, "  %-7s %-9s %3d%%  %s\n", name, sound.Name, sound.DefaultVolume, sound.ID)
			}
			return nil
		},
	}
}
