package collect

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/config"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/database"
)

// Source names used in Result.Sources.
const (
	SourceAPI  = "api"
	SourceFeed = "feed"
)

// Result holds the results of a collection run.
type Result struct {
	Requested     int
	Channels      int
	Videos        int
	StatsRecorded int
	Failed        int
	Sources       map[string]int
}

// Collector fetches channel metadata and recent uploads and stores them.
// With an API key the Data API is used and the public feeds serve as a
// fallback; without one only the feeds are read.
type Collector struct {
	db         *database.DB
	yt         *YouTubeClient
	feeds      *FeedReader
	channelIDs []string
	maxVideos  int
}

// NewCollector creates a collector for the channels listed in cfg.
func NewCollector(ctx context.Context, cfg *config.Config, db *database.DB) (*Collector, error) {
	c := &Collector{
		db:         db,
		feeds:      NewFeedReader(cfg.YouTube.FeedURL, cfg.YouTube.RequestRate, cfg.FetchTimeout()),
		channelIDs: cfg.Channels,
		maxVideos:  cfg.Scoring.MaxRecentVideos,
	}

	if key := cfg.APIKey(); key != "" {
		yt, err := NewYouTubeClient(ctx, YouTubeOptions{
			APIKey:      key,
			Endpoint:    cfg.YouTube.APIEndpoint,
			RequestRate: cfg.YouTube.RequestRate,
			Timeout:     cfg.FetchTimeout(),
		})
		if err != nil {
			return nil, err
		}
		c.yt = yt
	} else {
		log.Printf("%s not set; reading channel feeds only (no subscriber counts)", cfg.YouTube.APIKeyEnv)
	}

	return c, nil
}

// Collect refreshes every configured channel and records today's totals.
// Failures of single channels are logged and counted; only a cancelled
// context ends the run early.
func (c *Collector) Collect(ctx context.Context, today time.Time) (*Result, error) {
	r := &Result{Requested: len(c.channelIDs), Sources: make(map[string]int)}
	if len(c.channelIDs) == 0 {
		log.Println("No channels configured")
		return r, nil
	}

	pending := c.channelIDs
	if c.yt != nil {
		log.Printf("Collecting %d channels from the YouTube Data API...", len(pending))
		var err error
		pending, err = c.collectAPI(ctx, today, r)
		if err != nil {
			return r, err
		}
	}

	if len(pending) > 0 {
		log.Printf("Collecting %d channels from channel feeds...", len(pending))
		for _, id := range pending {
			if err := ctx.Err(); err != nil {
				return r, err
			}
			if err := c.collectFeed(ctx, id, r); err != nil {
				log.Printf("Failed to collect %s: %v", id, err)
				r.Failed++
			}
		}
	}

	log.Printf("Collection complete: %d channels, %d videos, %d failed",
		r.Channels, r.Videos, r.Failed)
	return r, nil
}

// collectAPI stores what the API returns and hands back the channel IDs
// that still need the feed fallback.
func (c *Collector) collectAPI(ctx context.Context, today time.Time, r *Result) ([]string, error) {
	infos, err := c.yt.FetchChannels(ctx, c.channelIDs)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		log.Printf("YouTube API unavailable, falling back to feeds: %v", err)
	}

	found := make(map[string]bool, len(infos))
	for _, info := range infos {
		found[info.ID] = true

		videos, err := c.yt.FetchRecentVideos(ctx, info.UploadsPlaylist, c.maxVideos)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			log.Printf("Failed to fetch uploads of %s: %v", info.ID, err)
		}

		if info.Keywords == "" {
			info.Keywords = videoTags(videos)
		}
		if err := c.store(info, videos, today, r); err != nil {
			log.Printf("Failed to store %s: %v", info.ID, err)
			r.Failed++
			continue
		}
		r.Sources[SourceAPI]++
	}

	var pending []string
	for _, id := range c.channelIDs {
		if !found[id] {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

func (c *Collector) collectFeed(ctx context.Context, channelID string, r *Result) error {
	feed, err := c.feeds.Read(ctx, channelID, c.maxVideos)
	if err != nil {
		return err
	}
	// Feeds carry no totals; the stored ones stay.
	if err := c.store(feed.Channel, feed.Videos, time.Time{}, r); err != nil {
		return err
	}
	r.Sources[SourceFeed]++
	return nil
}

// store writes a channel and its videos. A zero today skips the daily
// stats row.
func (c *Collector) store(info ChannelInfo, videos []VideoInfo, today time.Time, r *Result) error {
	ch := database.Channel{
		ChannelID:       info.ID,
		Name:            info.Title,
		Description:     info.Description,
		Keywords:        info.Keywords,
		SubscriberCount: info.SubscriberCount,
		ViewCount:       info.ViewCount,
		VideoCount:      info.VideoCount,
	}
	if info.PublishedAt != nil {
		created := database.FormatTime(*info.PublishedAt)
		ch.CreatedAt = &created
	}
	if err := c.db.UpsertChannel(ch); err != nil {
		return err
	}
	r.Channels++

	if !today.IsZero() && info.SubscriberCount != nil {
		err := c.db.RecordStats(database.StatsPoint{
			ChannelID:       info.ID,
			Day:             database.Day(today),
			SubscriberCount: *info.SubscriberCount,
			ViewCount:       info.ViewCount,
			VideoCount:      info.VideoCount,
		})
		if err != nil {
			return err
		}
		r.StatsRecorded++
	}

	for _, v := range videos {
		err := c.db.UpsertVideo(database.Video{
			VideoID:         v.ID,
			ChannelID:       info.ID,
			Title:           v.Title,
			PublishedAt:     database.FormatTime(v.PublishedAt),
			DurationSeconds: v.DurationSeconds,
			ViewCount:       v.ViewCount,
			LikeCount:       v.LikeCount,
		})
		if err != nil {
			return fmt.Errorf("storing video %s: %w", v.ID, err)
		}
		r.Videos++
	}
	return nil
}

// videoTags joins the distinct tags of the videos, for channels that set
// no keywords of their own.
func videoTags(videos []VideoInfo) string {
	seen := make(map[string]bool)
	var tags []string
	for _, v := range videos {
		for _, tag := range v.Tags {
			tag = strings.TrimSpace(tag)
			key := strings.ToLower(tag)
			if tag == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, " ")
}
