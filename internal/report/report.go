package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/keywords"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/ranking"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/scoring"
)

// tldrSize is the number of channels named in the TL;DR.
const tldrSize = 3

// Compose renders one page of the trending feed as a markdown report.
func Compose(feed ranking.Feed, evaluatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Trending channels, %s\n\n", evaluatedAt.UTC().Format("Monday, January 2, 2006 15:04 MST"))

	switch feed.Status {
	case ranking.StatusError:
		fmt.Fprintf(&b, "The feed could not be built: %s\n", feed.Message)
		return b.String()
	case ranking.StatusNoResults:
		b.WriteString("No trending channels right now.")
		if feed.Message != "" {
			fmt.Fprintf(&b, " (%s)", feed.Message)
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("## TL;DR\n\n")
	b.WriteString(tldr(feed))
	b.WriteString("\n\n")

	var sections []string
	for i, c := range feed.Channels {
		sections = append(sections, channelSection(i+1, c))
	}
	b.WriteString(strings.Join(sections, "\n\n---\n\n"))
	b.WriteString("\n")
	return b.String()
}

func tldr(feed ranking.Feed) string {
	counts := make(map[scoring.Label]int)
	for _, c := range feed.Channels {
		counts[c.Label]++
	}

	var mix []string
	for _, l := range scoring.Labels {
		if counts[l] > 0 {
			mix = append(mix, fmt.Sprintf("%d %s", counts[l], l))
		}
	}

	bullets := []string{
		fmt.Sprintf("- %d eligible channels, showing %d (%s)", feed.Total, len(feed.Channels), strings.Join(mix, ", ")),
	}
	for _, c := range feed.Channels[:min(tldrSize, len(feed.Channels))] {
		bullets = append(bullets, fmt.Sprintf("- **%s** scores %.1f with %d viral videos", displayName(c), c.TrendScore, c.ViralVideoCount))
	}
	return strings.Join(bullets, "\n")
}

func channelSection(rank int, c ranking.RankedChannel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d. %s\n\n", rank, displayName(c))
	fmt.Fprintf(&b, "**%s**", c.Label)
	if c.Niche != keywords.NicheUnclassified {
		fmt.Fprintf(&b, " · %s", c.Niche)
	}
	fmt.Fprintf(&b, " · trend %.1f (quality %.1f, potential %.1f)\n\n", c.TrendScore, c.QualityScore, c.PotentialScore)

	fmt.Fprintf(&b, "- Subscribers: %s\n", formatCount(c.SubscriberCount))
	fmt.Fprintf(&b, "- Viral videos: %d\n", c.ViralVideoCount)
	fmt.Fprintf(&b, "- Engagement: %.2f%%\n", c.EngagementRate*100)
	if c.Growth14d != nil {
		fmt.Fprintf(&b, "- Growth: %+.1f%%", *c.Growth14d*100)
		if c.GrowthVelocity != nil {
			fmt.Fprintf(&b, " (%.2f%% per day)", *c.GrowthVelocity*100)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("- Growth: no growth signal\n")
	}
	fmt.Fprintf(&b, "- Channel age: %d days\n", c.ChannelAgeDays)
	if len(c.TopKeywords) > 0 {
		fmt.Fprintf(&b, "- Keywords: %s\n", strings.Join(c.TopKeywords, ", "))
	}
	fmt.Fprintf(&b, "\n[Open channel](https://www.youtube.com/channel/%s)", c.ChannelID)
	return b.String()
}

func displayName(c ranking.RankedChannel) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ChannelID
}

// formatCount abbreviates large counts: 1.2M, 45.3K.
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
