package tracking

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SourceUsage summarises how often one source was started
type SourceUsage struct {
	Source     string    `json:"source"`
	Plays      int       `json:"plays"`
	Crossfades int       `json:"crossfades"`
	Channels   []string  `json:"channels,omitempty"`
	LastPlayed time.Time `json:"last_played"`
}

// UsageSummary counts events by kind
type UsageSummary struct {
	TotalEvents   int `json:"total_events"`
	Plays         int `json:"plays"`
	Crossfades    int `json:"crossfades"`
	Stops         int `json:"stops"`
	LoadFailures  int `json:"load_failures"`
	UniqueSources int `json:"unique_sources"`
	Sessions      int `json:"sessions"`
}

// ChannelStats summarises activity on one channel
type ChannelStats struct {
	Channel       string  `json:"channel"`
	Plays         int     `json:"plays"`
	Crossfades    int     `json:"crossfades"`
	Stops         int     `json:"stops"`
	AverageVolume float64 `json:"average_volume"`
}

// UnavailableSource is a source that failed to load
type UnavailableSource struct {
	Source    string    `json:"source"`
	Failures  int       `json:"failures"`
	Channels  []string  `json:"channels,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

func appendWhere(query string, filter QueryFilter) (string, []interface{}) {
	whereClause, args := filter.BuildWhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}
	return query, args
}

// GetSourceUsage lists sources by how often they were started
func GetSourceUsage(db *sql.DB, filter QueryFilter) ([]SourceUsage, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query, args := appendWhere(`
		SELECT
			source,
			SUM(CASE WHEN kind = 'play' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = 'crossfade' THEN 1 ELSE 0 END),
			GROUP_CONCAT(DISTINCT channel),
			MAX(timestamp)
		FROM playback_events
		WHERE kind IN ('play', 'crossfade')`, filter)
	query += `
		GROUP BY source
		ORDER BY COUNT(*) DESC, source ASC` + filter.limitClause()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query source usage: %w", err)
	}
	defer rows.Close()

	var results []SourceUsage
	for rows.Next() {
		var usage SourceUsage
		var channels sql.NullString
		var last int64
		if err := rows.Scan(&usage.Source, &usage.Plays, &usage.Crossfades, &channels, &last); err != nil {
			return nil, fmt.Errorf("failed to scan source usage row: %w", err)
		}
		usage.Channels = splitDistinct(channels)
		usage.LastPlayed = time.Unix(last, 0)
		results = append(results, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source usage rows: %w", err)
	}

	return results, nil
}

// GetUsageSummary counts the events matching filter
func GetUsageSummary(db *sql.DB, filter QueryFilter) (*UsageSummary, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query, args := appendWhere(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN kind = 'play' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'crossfade' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'stop' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'load_failed' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT CASE WHEN kind IN ('play', 'crossfade') THEN source END),
			COUNT(DISTINCT session_id)
		FROM playback_events
		WHERE 1 = 1`, filter)

	var s UsageSummary
	err := db.QueryRow(query, args...).Scan(
		&s.TotalEvents, &s.Plays, &s.Crossfades, &s.Stops, &s.LoadFailures, &s.UniqueSources, &s.Sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}

	return &s, nil
}

// GetChannelStats summarises each channel that saw any activity
func GetChannelStats(db *sql.DB, filter QueryFilter) ([]ChannelStats, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query, args := appendWhere(`
		SELECT
			channel,
			SUM(CASE WHEN kind = 'play' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = 'crossfade' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = 'stop' THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN kind IN ('play', 'crossfade') THEN volume END), 0)
		FROM playback_events
		WHERE channel != ''`, filter)
	query += `
		GROUP BY channel
		ORDER BY channel ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel stats: %w", err)
	}
	defer rows.Close()

	var results []ChannelStats
	for rows.Next() {
		var stats ChannelStats
		if err := rows.Scan(&stats.Channel, &stats.Plays, &stats.Crossfades, &stats.Stops, &stats.AverageVolume); err != nil {
			return nil, fmt.Errorf("failed to scan channel stats row: %w", err)
		}
		results = append(results, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel stats rows: %w", err)
	}

	return results, nil
}

// GetUnavailableSources lists sources that failed to load, most frequent first
func GetUnavailableSources(db *sql.DB, filter QueryFilter) ([]UnavailableSource, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query, args := appendWhere(`
		SELECT
			source,
			COUNT(*),
			GROUP_CONCAT(DISTINCT channel),
			MAX(timestamp),
			(SELECT error FROM playback_events latest
			 WHERE latest.source = playback_events.source AND latest.kind = 'load_failed'
			 ORDER BY latest.timestamp DESC, latest.id DESC LIMIT 1)
		FROM playback_events
		WHERE kind = 'load_failed'`, filter)
	query += `
		GROUP BY source
		ORDER BY COUNT(*) DESC, source ASC` + filter.limitClause()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailable sources: %w", err)
	}
	defer rows.Close()

	var results []UnavailableSource
	for rows.Next() {
		var src UnavailableSource
		var channels, lastErr sql.NullString
		var last int64
		if err := rows.Scan(&src.Source, &src.Failures, &channels, &last, &lastErr); err != nil {
			return nil, fmt.Errorf("failed to scan unavailable source row: %w", err)
		}
		src.Channels = splitDistinct(channels)
		src.LastError = lastErr.String
		src.LastSeen = time.Unix(last, 0)
		results = append(results, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailable source rows: %w", err)
	}

	return results, nil
}

// splitDistinct turns a GROUP_CONCAT result into a sorted list
func splitDistinct(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s.String, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	sort.Strings(out)
	return out
}
