package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

// maxIDsPerCall is the Data API limit on ids per list request.
const maxIDsPerCall = 50

// ChannelInfo is channel metadata as reported by a source.
type ChannelInfo struct {
	ID          string
	Title       string
	Description string
	Keywords    string
	PublishedAt *time.Time

	// SubscriberCount is nil when hidden or not reported by the source.
	SubscriberCount *int64
	ViewCount       int64
	VideoCount      int64
	UploadsPlaylist string
}

// VideoInfo is one upload as reported by a source.
type VideoInfo struct {
	ID              string
	ChannelID       string
	Title           string
	Tags            []string
	PublishedAt     time.Time
	DurationSeconds int64
	ViewCount       int64
	LikeCount       int64
}

// YouTubeClient reads channels and uploads from the YouTube Data API v3.
// Every request waits on a shared limiter and runs under its own timeout.
type YouTubeClient struct {
	svc     *youtube.Service
	limiter *rate.Limiter
	timeout time.Duration
}

// YouTubeOptions configures a YouTubeClient.
type YouTubeOptions struct {
	APIKey      string
	Endpoint    string
	RequestRate float64
	Timeout     time.Duration
}

// NewYouTubeClient creates a Data API client authenticated by API key.
func NewYouTubeClient(ctx context.Context, opts YouTubeOptions) (*YouTubeClient, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("youtube.NewService: %w", err)
	}

	return &YouTubeClient{
		svc:     svc,
		limiter: newLimiter(opts.RequestRate),
		timeout: orDefault(opts.Timeout, 15*time.Second),
	}, nil
}

// FetchChannels returns metadata for the given channel IDs. IDs the API
// does not know are absent from the result.
func (y *YouTubeClient) FetchChannels(ctx context.Context, ids []string) ([]ChannelInfo, error) {
	var out []ChannelInfo
	for start := 0; start < len(ids); start += maxIDsPerCall {
		end := min(start+maxIDsPerCall, len(ids))

		var resp *youtube.ChannelListResponse
		err := y.do(ctx, func(ctx context.Context) error {
			var err error
			resp, err = y.svc.Channels.
				List([]string{"snippet", "statistics", "contentDetails", "brandingSettings"}).
				Id(ids[start:end]...).
				MaxResults(maxIDsPerCall).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return out, fmt.Errorf("listing channels: %w", err)
		}

		for _, item := range resp.Items {
			out = append(out, channelInfo(item))
		}
	}
	return out, nil
}

// FetchRecentVideos returns up to max of the most recent uploads in the
// uploads playlist, with statistics.
func (y *YouTubeClient) FetchRecentVideos(ctx context.Context, uploadsPlaylist string, max int) ([]VideoInfo, error) {
	if uploadsPlaylist == "" || max <= 0 {
		return nil, nil
	}

	var items *youtube.PlaylistItemListResponse
	err := y.do(ctx, func(ctx context.Context) error {
		var err error
		items, err = y.svc.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(uploadsPlaylist).
			MaxResults(int64(min(max, maxIDsPerCall))).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing playlist %s: %w", uploadsPlaylist, err)
	}

	ids := make([]string, 0, len(items.Items))
	for _, item := range items.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var videos *youtube.VideoListResponse
	err = y.do(ctx, func(ctx context.Context) error {
		var err error
		videos, err = y.svc.Videos.
			List([]string{"snippet", "contentDetails", "statistics"}).
			Id(ids...).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}

	out := make([]VideoInfo, 0, len(videos.Items))
	for _, item := range videos.Items {
		if v, ok := videoInfo(item); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// do runs call after waiting for the limiter, under the request timeout.
func (y *YouTubeClient) do(ctx context.Context, call func(ctx context.Context) error) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()
	return call(ctx)
}

func channelInfo(item *youtube.Channel) ChannelInfo {
	c := ChannelInfo{ID: item.Id}
	if item.Snippet != nil {
		c.Title = strings.TrimSpace(item.Snippet.Title)
		c.Description = strings.TrimSpace(item.Snippet.Description)
		if t, ok := snapshot.ParseTime(item.Snippet.PublishedAt); ok {
			c.PublishedAt = &t
		}
	}
	if item.Statistics != nil {
		if !item.Statistics.HiddenSubscriberCount {
			subs := int64(item.Statistics.SubscriberCount)
			c.SubscriberCount = &subs
		}
		c.ViewCount = int64(item.Statistics.ViewCount)
		c.VideoCount = int64(item.Statistics.VideoCount)
	}
	if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil {
		c.UploadsPlaylist = item.ContentDetails.RelatedPlaylists.Uploads
	}
	if item.BrandingSettings != nil && item.BrandingSettings.Channel != nil {
		c.Keywords = item.BrandingSettings.Channel.Keywords
	}
	return c
}

func videoInfo(item *youtube.Video) (VideoInfo, bool) {
	if item.Snippet == nil {
		return VideoInfo{}, false
	}
	published, ok := snapshot.ParseTime(item.Snippet.PublishedAt)
	if !ok {
		return VideoInfo{}, false
	}

	v := VideoInfo{
		ID:          item.Id,
		ChannelID:   item.Snippet.ChannelId,
		Title:       strings.TrimSpace(item.Snippet.Title),
		Tags:        item.Snippet.Tags,
		PublishedAt: published,
	}
	if item.ContentDetails != nil {
		if secs, ok := snapshot.ParseDuration(item.ContentDetails.Duration); ok {
			v.DurationSeconds = secs
		}
	}
	if item.Statistics != nil {
		v.ViewCount = int64(item.Statistics.ViewCount)
		v.LikeCount = int64(item.Statistics.LikeCount)
	}
	return v, true
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
