package snapshot

import "time"

// DefaultMaxVideos is the number of most recent uploads kept per channel.
const DefaultMaxVideos = 10

// ShortMaxSeconds is the longest duration still classed as a short.
const ShortMaxSeconds = 60

// DurationClass is a coarse length bucket for a video.
type DurationClass string

const (
	DurationUnknown  DurationClass = "unknown"
	DurationShort    DurationClass = "short"
	DurationStandard DurationClass = "standard"
)

// ClassifyDuration buckets a duration in seconds. Zero or negative means unknown.
func ClassifyDuration(seconds int64) DurationClass {
	switch {
	case seconds <= 0:
		return DurationUnknown
	case seconds <= ShortMaxSeconds:
		return DurationShort
	default:
		return DurationStandard
	}
}

// VideoSample is one normalized upload of a channel.
type VideoSample struct {
	VideoID         string
	Title           string
	ViewCount       int64
	LikeCount       int64
	PublishedAt     time.Time
	DurationSeconds int64
	DurationClass   DurationClass
}

// AgeDays returns the fractional number of days between publication and at.
func (v VideoSample) AgeDays(at time.Time) float64 {
	return at.Sub(v.PublishedAt).Hours() / 24
}

// ChannelSnapshot is a channel as seen at EvaluatedAt. RecentVideos is
// ordered most-recent-first. Snapshots are values: callers must not modify
// RecentVideos after construction.
type ChannelSnapshot struct {
	ChannelID       string
	Name            string
	Description     string
	Keywords        string
	SubscriberCount int64
	ViewCount       int64
	VideoCount      int64
	CreatedAt       time.Time
	EvaluatedAt     time.Time
	RecentVideos    []VideoSample

	// SubscriberCount14dAgo is nil when no prior reading exists.
	SubscriberCount14dAgo *int64
}

// AgeDays returns the channel age in whole days.
func (s ChannelSnapshot) AgeDays() int {
	return int(s.EvaluatedAt.Sub(s.CreatedAt).Hours() / 24)
}

// Titles returns the titles of the recent videos in order.
func (s ChannelSnapshot) Titles() []string {
	titles := make([]string, 0, len(s.RecentVideos))
	for _, v := range s.RecentVideos {
		if v.Title != "" {
			titles = append(titles, v.Title)
		}
	}
	return titles
}
