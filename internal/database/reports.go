package database

import (
	"database/sql"
	"fmt"
)

// InsertRunReport records the counts of a scoring run.
func (db *DB) InsertRunReport(r RunReport) error {
	_, err := db.conn.Exec(
		`INSERT INTO run_reports (run_id, evaluated_at, channel_count, rejected_count, eligible_count)
		VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.EvaluatedAt, r.ChannelCount, r.RejectedCount, r.EligibleCount,
	)
	if err != nil {
		return fmt.Errorf("inserting run report: %w", err)
	}
	return nil
}

// GetLastRunReport returns the most recent run report, or nil if none.
func (db *DB) GetLastRunReport() (*RunReport, error) {
	var r RunReport
	err := db.conn.QueryRow(
		`SELECT run_id, evaluated_at, channel_count, rejected_count, eligible_count, created_at
		FROM run_reports ORDER BY evaluated_at DESC, created_at DESC LIMIT 1`,
	).Scan(&r.RunID, &r.EvaluatedAt, &r.ChannelCount, &r.RejectedCount, &r.EligibleCount, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM channels", &s.Channels},
		{"SELECT COUNT(*) FROM channels WHERE subscriber_count IS NOT NULL", &s.ChannelsWithStats},
		{"SELECT COUNT(*) FROM videos", &s.Videos},
		{"SELECT COUNT(DISTINCT day) FROM channel_stats", &s.StatsDays},
		{"SELECT COUNT(*) FROM run_reports", &s.RunReports},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
