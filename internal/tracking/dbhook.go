package tracking

import (
	"database/sql"
	"log/slog"
	"sync"

	"github.com/ctoth/soundscape/internal/engine"
)

// DBHook records engine events in the playback history database
type DBHook struct {
	mu        sync.Mutex
	db        *sql.DB
	sessionID string
	disabled  bool
	recorded  int
}

// NewDBHook creates a new database hook for the specified session
func NewDBHook(db *sql.DB, sessionID string) *DBHook {
	return &DBHook{
		db:        db,
		sessionID: sessionID,
	}
}

// Record writes one event. After the first failure the hook disables itself
// so a broken database never disturbs playback.
func (d *DBHook) Record(ev engine.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disabled {
		return
	}

	var errText sql.NullString
	if ev.Err != nil {
		errText = sql.NullString{String: ev.Err.Error(), Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT INTO playback_events (timestamp, session_id, kind, channel, source, volume, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.At.Unix(),
		d.sessionID,
		ev.Kind.String(),
		string(ev.Channel),
		ev.Source,
		ev.Volume,
		errText)
	if err != nil {
		slog.Warn("playback history disabled after write failure", "error", err, "kind", ev.Kind.String())
		d.disabled = true
		return
	}

	d.recorded++
	slog.Debug("playback event recorded",
		"session_id", d.sessionID,
		"kind", ev.Kind.String(),
		"channel", string(ev.Channel),
		"source", ev.Source)
}

// Recorded returns how many events were written
func (d *DBHook) Recorded() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recorded
}

// Disabled reports whether a write failure switched the hook off
func (d *DBHook) Disabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disabled
}

// GetHook returns the EventHook function for use with the engine
func (d *DBHook) GetHook() engine.EventHook {
	return d.Record
}
