package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctoth/soundscape/internal/engine"
	"github.com/ctoth/soundscape/internal/soundpack"
)

// target is one "channel[=source][@volume]" argument
type target struct {
	channel   engine.ChannelID
	source    string
	volume    engine.Percent
	hasVolume bool
}

// parseTarget parses a play argument. An ambient channel without a source
// plays its catalog sound at the catalog volume.
func parseTarget(arg string) (target, error) {
	var t target

	text := arg
	// a suffix that is not a percentage belongs to the source, as in user@host URLs
	if at := strings.LastIndex(text, "@"); at >= 0 {
		if p, err := parsePercent(text[at+1:]); err == nil {
			t.volume, t.hasVolume = p, true
			text = text[:at]
		}
	}

	name, src, hasSource := strings.Cut(text, "=")
	id, err := engine.ParseChannelID(name)
	if err != nil {
		return t, err
	}
	t.channel = id

	if hasSource && src != "" {
		t.source = src
		return t, nil
	}

	sound, ok := soundpack.LookupAmbient(string(id))
	if !ok {
		return t, fmt.Errorf("channel %s needs a source, e.g. %s=path/to/track.mp3", id, id)
	}
	t.source = sound.ID
	if !t.hasVolume {
		t.volume, t.hasVolume = engine.Percent(sound.DefaultVolume), true
	}
	return t, nil
}

// parsePercent accepts "40" or "40%"
func parsePercent(s string) (engine.Percent, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("not a percentage: %q", s)
	}
	return engine.Percent(v).Clamp(), nil
}
