package database

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertChannel inserts or updates a channel. Empty descriptions and a nil
// subscriber count keep the stored values, so a feed refresh never erases
// what the API reported earlier.
func (db *DB) UpsertChannel(c Channel) error {
	_, err := db.conn.Exec(
		`INSERT INTO channels (channel_id, name, description, keywords, created_at,
			subscriber_count, view_count, video_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(channel_id) DO UPDATE SET
			name = CASE WHEN excluded.name = '' THEN channels.name ELSE excluded.name END,
			description = CASE WHEN excluded.description = '' THEN channels.description ELSE excluded.description END,
			keywords = CASE WHEN excluded.keywords = '' THEN channels.keywords ELSE excluded.keywords END,
			created_at = COALESCE(excluded.created_at, channels.created_at),
			subscriber_count = COALESCE(excluded.subscriber_count, channels.subscriber_count),
			view_count = MAX(excluded.view_count, channels.view_count),
			video_count = MAX(excluded.video_count, channels.video_count),
			updated_at = datetime('now')`,
		c.ChannelID, c.Name, c.Description, c.Keywords, c.CreatedAt,
		c.SubscriberCount, c.ViewCount, c.VideoCount,
	)
	if err != nil {
		return fmt.Errorf("upserting channel %s: %w", c.ChannelID, err)
	}
	return nil
}

// RecordStats stores the channel totals for a day, replacing an earlier
// reading of the same day.
func (db *DB) RecordStats(p StatsPoint) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO channel_stats (channel_id, day, subscriber_count, view_count, video_count)
		VALUES (?, ?, ?, ?, ?)`,
		p.ChannelID, p.Day, p.SubscriberCount, p.ViewCount, p.VideoCount,
	)
	if err != nil {
		return fmt.Errorf("recording stats for %s: %w", p.ChannelID, err)
	}
	return nil
}

// GetChannel returns a channel by ID, or nil if it was never collected.
func (db *DB) GetChannel(channelID string) (*Channel, error) {
	row := db.conn.QueryRow(
		`SELECT channel_id, name, description, description_fetched, keywords, created_at,
			subscriber_count, view_count, video_count, updated_at
		FROM channels WHERE channel_id = ?`, channelID,
	)
	c, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListChannelIDs returns the IDs of all stored channels in ascending order.
func (db *DB) ListChannelIDs() ([]string, error) {
	rows, err := db.conn.Query("SELECT channel_id FROM channels ORDER BY channel_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetChannelsNeedingDescription returns channels with an empty description
// whose page has not been fetched yet.
func (db *DB) GetChannelsNeedingDescription() ([]Channel, error) {
	rows, err := db.conn.Query(
		`SELECT channel_id, name, description, description_fetched, keywords, created_at,
			subscriber_count, view_count, video_count, updated_at
		FROM channels WHERE description = '' AND description_fetched = 0
		ORDER BY channel_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, rows.Err()
}

// UpdateDescription stores a fetched description and marks the fetch done.
func (db *DB) UpdateDescription(channelID, description string) error {
	_, err := db.conn.Exec(
		"UPDATE channels SET description = ?, description_fetched = 1 WHERE channel_id = ?",
		description, channelID,
	)
	return err
}

// MarkDescriptionAttempted marks that we tried to fetch the channel page.
func (db *DB) MarkDescriptionAttempted(channelID string) error {
	_, err := db.conn.Exec(
		"UPDATE channels SET description_fetched = 1 WHERE channel_id = ?", channelID,
	)
	return err
}

// SubscribersOn returns the subscriber reading closest to day within
// toleranceDays on either side, preferring the earlier day on a tie. It
// returns nil when no reading is close enough.
func (db *DB) SubscribersOn(channelID string, day time.Time, toleranceDays int) (*int64, error) {
	target := Day(day)
	from := Day(day.AddDate(0, 0, -toleranceDays))
	to := Day(day.AddDate(0, 0, toleranceDays))

	var subs int64
	err := db.conn.QueryRow(
		`SELECT subscriber_count FROM channel_stats
		WHERE channel_id = ? AND day BETWEEN ? AND ?
		ORDER BY ABS(julianday(day) - julianday(?)), day
		LIMIT 1`,
		channelID, from, to, target,
	).Scan(&subs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading subscriber history for %s: %w", channelID, err)
	}
	return &subs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (*Channel, error) {
	var c Channel
	var fetched int
	var subs sql.NullInt64
	if err := row.Scan(&c.ChannelID, &c.Name, &c.Description, &fetched, &c.Keywords,
		&c.CreatedAt, &subs, &c.ViewCount, &c.VideoCount, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.DescriptionFetched = fetched != 0
	if subs.Valid {
		v := subs.Int64
		c.SubscriberCount = &v
	}
	return &c, nil
}
