package database

import "fmt"

// UpsertVideo inserts a video or refreshes its counters. The title and
// duration keep their stored values when the new reading lacks them.
func (db *DB) UpsertVideo(v Video) error {
	_, err := db.conn.Exec(
		`INSERT INTO videos (video_id, channel_id, title, published_at, duration_seconds,
			view_count, like_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(video_id) DO UPDATE SET
			title = CASE WHEN excluded.title = '' THEN videos.title ELSE excluded.title END,
			published_at = excluded.published_at,
			duration_seconds = CASE WHEN excluded.duration_seconds = 0 THEN videos.duration_seconds ELSE excluded.duration_seconds END,
			view_count = excluded.view_count,
			like_count = CASE WHEN excluded.like_count = 0 THEN videos.like_count ELSE excluded.like_count END,
			fetched_at = datetime('now')`,
		v.VideoID, v.ChannelID, v.Title, v.PublishedAt, v.DurationSeconds, v.ViewCount, v.LikeCount,
	)
	if err != nil {
		return fmt.Errorf("upserting video %s: %w", v.VideoID, err)
	}
	return nil
}

// GetRecentVideos returns up to limit videos of a channel, most recent first.
func (db *DB) GetRecentVideos(channelID string, limit int) ([]Video, error) {
	rows, err := db.conn.Query(
		`SELECT video_id, channel_id, title, published_at, duration_seconds, view_count, like_count, fetched_at
		FROM videos WHERE channel_id = ?
		ORDER BY published_at DESC, video_id ASC
		LIMIT ?`, channelID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.VideoID, &v.ChannelID, &v.Title, &v.PublishedAt,
			&v.DurationSeconds, &v.ViewCount, &v.LikeCount, &v.FetchedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
