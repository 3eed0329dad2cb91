package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/keywords"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/ranking"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/scoring"
)

var evaluatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(f float64) *float64 { return &f }

func TestComposeReport(t *testing.T) {
	feed := ranking.Feed{
		Status: ranking.StatusOK,
		Total:  2,
		Channels: []ranking.RankedChannel{
			{
				ChannelID: "UC1", Name: "Blocky Builds", SubscriberCount: 1_230_000,
				ViralVideoCount: 4, Growth14d: ptr(0.25), GrowthVelocity: ptr(0.0179),
				EngagementRate: 0.05, QualityScore: 8.1, PotentialScore: 9.2, TrendScore: 8.7,
				Label: scoring.LabelViral, Niche: keywords.NicheGaming,
				TopKeywords: []string{"minecraft", "redstone"},
			},
			{
				ChannelID: "UC2", SubscriberCount: 900,
				ViralVideoCount: 1, TrendScore: 2.4,
				Label: scoring.LabelRising, Niche: keywords.NicheUnclassified,
				TopKeywords: []string{},
			},
		},
	}

	md := Compose(feed, evaluatedAt)

	for _, want := range []string{
		"# Trending channels, Sunday, March 1, 2026 12:00 UTC",
		"## TL;DR",
		"2 eligible channels, showing 2 (1 viral, 1 rising)",
		"**Blocky Builds** scores 8.7 with 4 viral videos",
		"## 1. Blocky Builds",
		"**viral** · gaming · trend 8.7",
		"- Subscribers: 1.2M",
		"- Growth: +25.0% (1.79% per day)",
		"- Keywords: minecraft, redstone",
		"## 2. UC2",
		"- Growth: no growth signal",
		"- Subscribers: 900",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected report to contain %q\n%s", want, md)
		}
	}

	if strings.Contains(md, "unclassified") {
		t.Error("expected unclassified niche to be omitted")
	}
	if strings.Index(md, "## 1.") > strings.Index(md, "## 2.") {
		t.Error("expected channels in feed order")
	}
}

func TestComposeNoResults(t *testing.T) {
	md := Compose(ranking.Assemble(nil, ranking.FeedOptions{MinViralVideos: 1}), evaluatedAt)
	if !strings.Contains(md, "No trending channels right now.") {
		t.Errorf("expected no-results note, got:\n%s", md)
	}
	if strings.Contains(md, "TL;DR") {
		t.Error("expected no TL;DR without channels")
	}
}

func TestComposeError(t *testing.T) {
	md := Compose(ranking.ErrorFeed(errors.New("database is locked")), evaluatedAt)
	if !strings.Contains(md, "could not be built: database is locked") {
		t.Errorf("expected error note, got:\n%s", md)
	}
}

func TestFormatCount(t *testing.T) {
	cases := map[int64]string{
		0:         "0",
		9_999:     "9999",
		45_300:    "45.3K",
		2_000_000: "2.0M",
	}
	for n, want := range cases {
		if got := formatCount(n); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", n, got, want)
		}
	}
}
