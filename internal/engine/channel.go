package engine

import (
	"log/slog"
	"sync"

	"github.com/ctoth/soundscape/internal/graph"
)

// channel is one logical playback lane. Its control fields are guarded by mu;
// stage and voice are only replaced inside a graph update while mu is held.
// fades is touched by deferred graph tasks and is guarded by the graph lock.
type channel struct {
	id ChannelID

	mu      sync.Mutex
	gen     uint64
	stage   *graph.GainStage
	voice   *graph.Voice
	source  string
	volume  float64
	playing bool

	fades []*fade
}

// fade is the outgoing half of a crossfade, retired when its task fires
type fade struct {
	voice *graph.Voice
	stage *graph.GainStage
	task  *graph.Task
}

func newChannel(id ChannelID, volume float64, bus *graph.Bus, now int64) *channel {
	ch := &channel{
		id:     id,
		volume: volume,
		stage:  graph.NewGainStage(volume, now),
	}
	bus.Connect(ch.stage)
	return ch
}

// silence stops the authoritative voice and every outgoing fade. Runs inside a graph update.
func (ch *channel) silence(bus *graph.Bus) {
	if ch.voice != nil {
		ch.voice.Stop()
		ch.voice = nil
	}
	for _, f := range ch.fades {
		f.task.Cancel()
		f.retire(bus)
	}
	ch.fades = nil
}

// crossfade starts v on a fresh stage ramping in over [now, end] while the current
// pair ramps out, then makes the new pair authoritative. Runs inside a graph update.
func (ch *channel) crossfade(g *graph.Graph, bus *graph.Bus, v *graph.Voice, now, end int64) {
	incoming := graph.NewGainStage(0, now)
	bus.Connect(incoming)
	incoming.Attach(v)
	incoming.RampGain(ch.volume, now, end)

	out := &fade{voice: ch.voice, stage: ch.stage}
	out.stage.RampGain(0, now, end)
	out.task = g.Schedule(end, func() {
		out.retire(bus)
		ch.dropFade(out)
		slog.Debug("crossfade completed", "channel", string(ch.id), "pending_fades", len(ch.fades))
	})
	ch.fades = append(ch.fades, out)

	ch.stage = incoming
	ch.voice = v
}

func (ch *channel) dropFade(f *fade) {
	for i, other := range ch.fades {
		if other == f {
			ch.fades = append(ch.fades[:i], ch.fades[i+1:]...)
			return
		}
	}
}

func (f *fade) retire(bus *graph.Bus) {
	if f.voice != nil {
		f.voice.Stop()
	}
	bus.Disconnect(f.stage)
}
