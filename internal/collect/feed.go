package collect

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/time/rate"
)

// ChannelFeed is what a channel's public Atom feed reveals: its title and
// the latest uploads with view counts. Feeds carry no channel totals.
type ChannelFeed struct {
	Channel ChannelInfo
	Videos  []VideoInfo
}

// FeedReader reads the public uploads feed of a channel.
type FeedReader struct {
	parser  *gofeed.Parser
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewFeedReader creates a reader for feeds served under baseURL, e.g.
// https://www.youtube.com/feeds/videos.xml.
func NewFeedReader(baseURL string, requestRate float64, timeout time.Duration) *FeedReader {
	parser := gofeed.NewParser()
	parser.UserAgent = "shortsradar/1.0"
	return &FeedReader{
		parser:  parser,
		baseURL: baseURL,
		limiter: newLimiter(requestRate),
		timeout: orDefault(timeout, 15*time.Second),
	}
}

// FeedURL returns the feed address of a channel.
func (fr *FeedReader) FeedURL(channelID string) string {
	return fr.baseURL + "?channel_id=" + url.QueryEscape(channelID)
}

// Read fetches and parses the feed of channelID, keeping at most max videos.
func (fr *FeedReader) Read(ctx context.Context, channelID string, max int) (*ChannelFeed, error) {
	if err := fr.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, fr.timeout)
	defer cancel()

	feed, err := fr.parser.ParseURLWithContext(fr.FeedURL(channelID), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed of %s: %w", channelID, err)
	}
	return parseChannelFeed(feed, channelID, max), nil
}

func parseChannelFeed(feed *gofeed.Feed, channelID string, max int) *ChannelFeed {
	cf := &ChannelFeed{
		Channel: ChannelInfo{
			ID:    channelID,
			Title: strings.TrimSpace(feed.Title),
		},
	}
	if feed.Author != nil && cf.Channel.Title == "" {
		cf.Channel.Title = strings.TrimSpace(feed.Author.Name)
	}

	for _, item := range feed.Items {
		if max > 0 && len(cf.Videos) >= max {
			break
		}
		if v, ok := parseFeedItem(item, channelID); ok {
			cf.Videos = append(cf.Videos, v)
		}
	}
	return cf
}

func parseFeedItem(item *gofeed.Item, channelID string) (VideoInfo, bool) {
	id := extensionValue(item.Extensions, "yt", "videoId")
	if id == "" {
		id = strings.TrimPrefix(item.GUID, "yt:video:")
	}
	if id == "" {
		return VideoInfo{}, false
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	default:
		return VideoInfo{}, false
	}

	v := VideoInfo{
		ID:          id,
		ChannelID:   channelID,
		Title:       strings.TrimSpace(item.Title),
		PublishedAt: published,
	}

	// media:group > media:community > media:statistics@views, media:starRating@count
	if community := child(item.Extensions["media"]["group"], "community"); community != nil {
		if stats := child([]ext.Extension{*community}, "statistics"); stats != nil {
			v.ViewCount = parseCount(stats.Attrs["views"])
		}
		if rating := child([]ext.Extension{*community}, "starRating"); rating != nil {
			v.LikeCount = parseCount(rating.Attrs["count"])
		}
	}
	return v, true
}

func extensionValue(exts ext.Extensions, ns, name string) string {
	if exts == nil {
		return ""
	}
	for _, e := range exts[ns][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// child returns the first child element called name of any of parents.
func child(parents []ext.Extension, name string) *ext.Extension {
	for _, p := range parents {
		if kids := p.Children[name]; len(kids) > 0 {
			return &kids[0]
		}
	}
	return nil
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
