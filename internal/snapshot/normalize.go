package snapshot

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MalformedSnapshot reports a raw channel that cannot become a snapshot.
type MalformedSnapshot struct {
	ChannelID string
	Field     string
	Reason    string
}

func (e *MalformedSnapshot) Error() string {
	if e.ChannelID == "" {
		return fmt.Sprintf("malformed snapshot: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed snapshot %s: %s %s", e.ChannelID, e.Field, e.Reason)
}

// Normalize validates raw and builds the snapshot of the channel at
// evaluatedAt, keeping at most maxVideos of its most recent uploads.
// The returned error is always a *MalformedSnapshot.
func Normalize(raw RawChannel, evaluatedAt time.Time, maxVideos int) (ChannelSnapshot, error) {
	if maxVideos <= 0 {
		maxVideos = DefaultMaxVideos
	}
	evaluatedAt = evaluatedAt.UTC()

	id := raw.ChannelID.String()
	switch {
	case !raw.ChannelID.Set:
		return ChannelSnapshot{}, &MalformedSnapshot{Field: "channel_id", Reason: "is missing"}
	case !raw.ChannelID.Valid:
		return ChannelSnapshot{}, &MalformedSnapshot{Field: "channel_id", Reason: "is not a string"}
	case id == "":
		return ChannelSnapshot{}, &MalformedSnapshot{Field: "channel_id", Reason: "is empty"}
	}

	switch {
	case !raw.SubscriberCount.Set:
		return ChannelSnapshot{}, &MalformedSnapshot{ChannelID: id, Field: "subscriber_count", Reason: "is missing"}
	case !raw.SubscriberCount.Valid:
		return ChannelSnapshot{}, &MalformedSnapshot{ChannelID: id, Field: "subscriber_count", Reason: "is not a number"}
	}

	switch {
	case !raw.Videos.Set:
		return ChannelSnapshot{}, &MalformedSnapshot{ChannelID: id, Field: "videos", Reason: "is missing"}
	case !raw.Videos.Valid:
		return ChannelSnapshot{}, &MalformedSnapshot{ChannelID: id, Field: "videos", Reason: "is not a list"}
	}

	s := ChannelSnapshot{
		ChannelID:       id,
		Name:            raw.Name.String(),
		Description:     raw.Description.String(),
		Keywords:        raw.Keywords.String(),
		SubscriberCount: nonNegative(raw.SubscriberCount),
		ViewCount:       nonNegative(raw.ViewCount),
		VideoCount:      nonNegative(raw.VideoCount),
		CreatedAt:       evaluatedAt,
		EvaluatedAt:     evaluatedAt,
		RecentVideos:    normalizeVideos(raw.Videos.Items, evaluatedAt, maxVideos),
	}
	if s.Name == "" {
		s.Name = id
	}

	if raw.CreatedAt.Valid && !raw.CreatedAt.Value.After(evaluatedAt) {
		s.CreatedAt = raw.CreatedAt.Value.UTC()
	}

	if raw.SubscriberCount14dAgo.Set && raw.SubscriberCount14dAgo.Valid {
		prior := raw.SubscriberCount14dAgo.Value
		if prior < 0 {
			prior = 0
		}
		s.SubscriberCount14dAgo = &prior
	}

	return s, nil
}

func normalizeVideos(items []RawVideo, evaluatedAt time.Time, maxVideos int) []VideoSample {
	seen := make(map[string]struct{}, len(items))
	videos := make([]VideoSample, 0, len(items))

	for _, rv := range items {
		id := rv.VideoID.String()
		if id == "" || !rv.PublishedAt.Valid {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		published := rv.PublishedAt.Value.UTC()
		if published.After(evaluatedAt) {
			published = evaluatedAt
		}

		var seconds int64
		if rv.Duration.Valid {
			seconds = rv.Duration.Seconds
		}

		videos = append(videos, VideoSample{
			VideoID:         id,
			Title:           strings.TrimSpace(rv.Title.String()),
			ViewCount:       nonNegative(rv.ViewCount),
			LikeCount:       nonNegative(rv.LikeCount),
			PublishedAt:     published,
			DurationSeconds: seconds,
			DurationClass:   ClassifyDuration(seconds),
		})
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if !videos[i].PublishedAt.Equal(videos[j].PublishedAt) {
			return videos[i].PublishedAt.After(videos[j].PublishedAt)
		}
		return videos[i].VideoID < videos[j].VideoID
	})

	if len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}
	return videos
}

func nonNegative(c Count) int64 {
	if !c.Set || !c.Valid || c.Value < 0 {
		return 0
	}
	return c.Value
}
