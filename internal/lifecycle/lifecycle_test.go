package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctoth/soundscape/internal/audio"
	"github.com/ctoth/soundscape/internal/engine"
	"github.com/ctoth/soundscape/internal/output"
)

type recorder struct {
	calls   []string
	initErr error
}

func (r *recorder) Initialize(ctx context.Context) error {
	r.calls = append(r.calls, "initialize")
	return r.initErr
}

func (r *recorder) Suspend() error {
	r.calls = append(r.calls, "suspend")
	return nil
}

func (r *recorder) Resume() error {
	r.calls = append(r.calls, "resume")
	return nil
}

func (r *recorder) Dispose() error {
	r.calls = append(r.calls, "dispose")
	return nil
}

func TestEventsBeforeGestureAreIgnored(t *testing.T) {
	r := &recorder{}
	a := NewAdapter(r)
	ctx := context.Background()

	require.NoError(t, a.Handle(ctx, Hidden))
	require.NoError(t, a.Handle(ctx, Visible))
	assert.Empty(t, r.calls)
	assert.False(t, a.Initialized())

	require.NoError(t, a.Handle(ctx, Gesture))
	require.NoError(t, a.Handle(ctx, Hidden))
	require.NoError(t, a.Handle(ctx, Visible))
	assert.Equal(t, []string{"initialize", "suspend", "resume"}, r.calls)
}

func TestTeardownIsFinal(t *testing.T) {
	r := &recorder{}
	a := NewAdapter(r)
	ctx := context.Background()

	require.NoError(t, a.Handle(ctx, Teardown))
	require.NoError(t, a.Handle(ctx, Gesture))
	require.NoError(t, a.Handle(ctx, Teardown))

	assert.True(t, a.Done())
	assert.Equal(t, []string{"dispose"}, r.calls)
}

func TestFailedGestureCanBeRetried(t *testing.T) {
	r := &recorder{initErr: errors.New("device busy")}
	a := NewAdapter(r)
	ctx := context.Background()

	err := a.Handle(ctx, Gesture)
	require.Error(t, err)
	assert.False(t, a.Initialized())

	require.NoError(t, a.Handle(ctx, Hidden))
	assert.Equal(t, []string{"initialize"}, r.calls)

	r.initErr = nil
	require.NoError(t, a.Handle(ctx, Gesture))
	assert.True(t, a.Initialized())
}

func TestRunStopsOnTeardown(t *testing.T) {
	r := &recorder{}
	a := NewAdapter(r)
	events := make(chan Event, 8)
	events <- Visible
	events <- Gesture
	events <- Hidden
	events <- Teardown
	events <- Visible

	require.NoError(t, a.Run(context.Background(), events))
	assert.Equal(t, []string{"initialize", "suspend", "dispose"}, r.calls)
	assert.Len(t, events, 1)
}

func TestRunDisposesWhenChannelCloses(t *testing.T) {
	r := &recorder{}
	a := NewAdapter(r)
	events := make(chan Event)
	close(events)

	require.NoError(t, a.Run(context.Background(), events))
	assert.Equal(t, []string{"dispose"}, r.calls)
}

func TestRunDisposesWhenContextEnds(t *testing.T) {
	r := &recorder{}
	a := NewAdapter(r)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := a.Run(ctx, make(chan Event))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"dispose"}, r.calls)
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in   string
		want Event
	}{
		{"start", Gesture},
		{"hide", Hidden},
		{"show", Visible},
		{"quit", Teardown},
		{"exit", Teardown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvent(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseEvent("minimize")
	assert.Error(t, err)
}

type nopLoader struct{}

func (nopLoader) Load(_ context.Context, id string) (*audio.Buffer, error) {
	return nil, errors.New("no sources in this test")
}

func (nopLoader) Clear() {}

func TestAdapterDrivesEngine(t *testing.T) {
	backend := output.NewManualBackend(1000)
	e := engine.New(backend, nopLoader{})
	a := NewAdapter(e)
	ctx := context.Background()

	require.NoError(t, a.Handle(ctx, Hidden))
	assert.Equal(t, engine.StateUninitialized, e.State())

	require.NoError(t, a.Handle(ctx, Gesture))
	assert.Equal(t, engine.StateReady, e.State())

	require.NoError(t, a.Handle(ctx, Hidden))
	assert.Equal(t, engine.StateSuspended, e.State())
	assert.Equal(t, output.StateSuspended, backend.State())

	require.NoError(t, a.Handle(ctx, Visible))
	assert.Equal(t, engine.StateReady, e.State())

	require.NoError(t, a.Handle(ctx, Teardown))
	assert.Equal(t, engine.StateDisposed, e.State())
	assert.Equal(t, output.StateClosed, backend.State())
}
