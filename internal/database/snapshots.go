package database

import (
	"fmt"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

// LoadOptions controls how stored channels are turned into raw records.
type LoadOptions struct {
	MaxVideos        int
	GrowthWindowDays int

	// HistoryToleranceDays widens the search for the prior subscriber
	// reading around the start of the growth window.
	HistoryToleranceDays int
}

// LoadRawChannels rebuilds the collector records of the given channels as
// of evaluatedAt. An empty ids loads every stored channel. Channels that
// were never collected are skipped. A channel without a known subscriber
// count is returned without one and is rejected by normalization.
func (db *DB) LoadRawChannels(ids []string, evaluatedAt time.Time, opts LoadOptions) ([]snapshot.RawChannel, error) {
	if opts.MaxVideos <= 0 {
		opts.MaxVideos = snapshot.DefaultMaxVideos
	}
	if opts.GrowthWindowDays <= 0 {
		opts.GrowthWindowDays = 14
	}

	if len(ids) == 0 {
		var err error
		ids, err = db.ListChannelIDs()
		if err != nil {
			return nil, fmt.Errorf("listing channels: %w", err)
		}
	}

	windowStart := evaluatedAt.AddDate(0, 0, -opts.GrowthWindowDays)
	raws := make([]snapshot.RawChannel, 0, len(ids))
	for _, id := range ids {
		c, err := db.GetChannel(id)
		if err != nil {
			return nil, fmt.Errorf("loading channel %s: %w", id, err)
		}
		if c == nil {
			continue
		}

		videos, err := db.GetRecentVideos(id, opts.MaxVideos)
		if err != nil {
			return nil, fmt.Errorf("loading videos of %s: %w", id, err)
		}

		prior, err := db.SubscribersOn(id, windowStart, opts.HistoryToleranceDays)
		if err != nil {
			return nil, err
		}

		raws = append(raws, rawFromChannel(*c, videos, prior))
	}
	return raws, nil
}

func rawFromChannel(c Channel, videos []Video, prior *int64) snapshot.RawChannel {
	raw := snapshot.RawChannel{
		ChannelID:   snapshot.NewText(c.ChannelID),
		Name:        snapshot.NewText(c.Name),
		Description: snapshot.NewText(c.Description),
		Keywords:    snapshot.NewText(c.Keywords),
		ViewCount:   snapshot.NewCount(c.ViewCount),
		VideoCount:  snapshot.NewCount(c.VideoCount),
	}
	if c.SubscriberCount != nil {
		raw.SubscriberCount = snapshot.NewCount(*c.SubscriberCount)
	}
	if prior != nil {
		raw.SubscriberCount14dAgo = snapshot.NewCount(*prior)
	}
	if c.CreatedAt != nil {
		if t, ok := snapshot.ParseTime(*c.CreatedAt); ok {
			raw.CreatedAt = snapshot.NewTimestamp(t)
		}
	}

	items := make([]snapshot.RawVideo, 0, len(videos))
	for _, v := range videos {
		rv := snapshot.RawVideo{
			VideoID:   snapshot.NewText(v.VideoID),
			Title:     snapshot.NewText(v.Title),
			ViewCount: snapshot.NewCount(v.ViewCount),
			LikeCount: snapshot.NewCount(v.LikeCount),
			Duration:  snapshot.Duration{Seconds: v.DurationSeconds, Valid: v.DurationSeconds > 0},
		}
		if t, ok := snapshot.ParseTime(v.PublishedAt); ok {
			rv.PublishedAt = snapshot.NewTimestamp(t)
		}
		items = append(items, rv)
	}
	raw.Videos = snapshot.NewVideoList(items)
	return raw
}
