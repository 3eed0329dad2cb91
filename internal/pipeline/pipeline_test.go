package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/config"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/database"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/ranking"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/scoring"
)

var evaluatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Pixel Chef</title>
 <entry>
  <id>yt:video:vid2</id>
  <yt:videoId>vid2</yt:videoId>
  <title>Crispy pasta chips #shorts</title>
  <published>2026-02-27T10:00:00+00:00</published>
  <media:group>
   <media:community>
    <media:starRating count="4200" average="5.00" min="1" max="5"/>
    <media:statistics views="1500000"/>
   </media:community>
  </media:group>
 </entry>
</feed>`

const channelPage = `<html><head><title>Pixel Chef</title>
<meta name="description" content="Quick pasta recipes and kitchen snacks in under a minute."></head>
<body><article><p>Quick pasta recipes and kitchen snacks in under a minute.</p></article></body></html>`

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig(t *testing.T, channels ...string) *config.Config {
	t.Setenv("SHORTSRADAR_TEST_YT_KEY", "")
	return &config.Config{
		Channels: channels,
		YouTube: config.YouTube{
			APIKeyEnv:      "SHORTSRADAR_TEST_YT_KEY",
			TimeoutSeconds: 5,
		},
		Scoring: scoring.DefaultPolicy(),
		Feed:    config.Feed{PageSize: 50},
		Output:  config.Output{DataDir: t.TempDir()},
	}
}

func subs(n int64) *int64 { return &n }

func TestScoreFromStore(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(database.Channel{ChannelID: "UC1", Name: "Blocky Builds", SubscriberCount: subs(1000)})
	db.RecordStats(database.StatsPoint{ChannelID: "UC1", Day: "2026-02-15", SubscriberCount: 800})
	db.UpsertVideo(database.Video{
		VideoID: "v1", ChannelID: "UC1", Title: "Redstone door",
		PublishedAt: "2026-02-19T00:00:00Z", ViewCount: 2_000_000, LikeCount: 50_000,
	})
	// No subscriber count was ever collected.
	db.UpsertChannel(database.Channel{ChannelID: "UC2", Name: "Unknown"})

	p := New(testConfig(t, "UC1", "UC2"), db)
	batch, err := p.Score(context.Background(), evaluatedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Channels) != 1 || len(batch.Rejected) != 1 {
		t.Fatalf("expected 1 scored and 1 rejected, got %d and %d", len(batch.Channels), len(batch.Rejected))
	}
	if batch.Rejected[0].ChannelID != "UC2" {
		t.Errorf("expected UC2 rejected, got %+v", batch.Rejected[0])
	}

	c := batch.Channels[0]
	if c.ViralVideoCount != 1 {
		t.Errorf("expected 1 viral video, got %d", c.ViralVideoCount)
	}
	if c.Growth14d == nil || *c.Growth14d != 0.25 {
		t.Errorf("expected growth 0.25 from history, got %v", c.Growth14d)
	}

	feed := p.Assemble(batch.Channels, 0, 0)
	if feed.Status != ranking.StatusOK || feed.Total != 1 {
		t.Errorf("unexpected feed: %+v", feed)
	}
}

func TestRunWritesReport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/videos.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, channelFeed)
	})
	mux.HandleFunc("/channel/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, channelPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, "UCfeed")
	cfg.YouTube.FeedURL = srv.URL + "/feeds/videos.xml"
	cfg.YouTube.ChannelURL = srv.URL + "/channel/"

	db := openTestDB(t)
	// Subscriber count from an earlier API collection.
	db.UpsertChannel(database.Channel{ChannelID: "UCfeed", SubscriberCount: subs(5000)})

	r := New(cfg, db).Run(context.Background(), evaluatedAt)

	if len(r.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d: %+v", len(r.Steps), r.Steps)
	}
	for _, s := range r.Steps {
		if s.Err != nil {
			t.Errorf("step %s failed: %v", s.Name, s.Err)
		}
	}
	if r.Feed.Status != ranking.StatusOK || r.Feed.Total != 1 {
		t.Errorf("unexpected feed: %+v", r.Feed)
	}

	content, err := os.ReadFile(r.ReportPath)
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}
	if !strings.Contains(string(content), "Pixel Chef") {
		t.Errorf("expected channel in report:\n%s", content)
	}
	if filepath.Base(r.ReportPath) != "2026-03-01.md" {
		t.Errorf("unexpected report name %s", r.ReportPath)
	}

	last, _ := db.GetLastRunReport()
	if last == nil || last.RunID != r.RunID || last.EligibleCount != 1 {
		t.Errorf("unexpected run report: %+v", last)
	}

	ch, _ := db.GetChannel("UCfeed")
	if !strings.Contains(ch.Description, "pasta recipes") {
		t.Errorf("expected fetched description, got %q", ch.Description)
	}
}

func TestRunStopsWhenCollectFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(testConfig(t, "UC1"), openTestDB(t)).Run(ctx, evaluatedAt)
	if len(r.Steps) != 1 || r.Steps[0].Err == nil {
		t.Errorf("expected a single failed collect step, got %+v", r.Steps)
	}
}

func TestDryRun(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(database.Channel{ChannelID: "UC1"})

	r := New(testConfig(t, "UC1", "UC2"), db).DryRun(evaluatedAt)
	if len(r.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(r.Steps))
	}
	if !strings.Contains(r.Steps[0].Summary, "2 channels configured") {
		t.Errorf("unexpected collect summary: %s", r.Steps[0].Summary)
	}
	if !strings.Contains(r.Steps[2].Summary, "1 channels stored") {
		t.Errorf("unexpected score summary: %s", r.Steps[2].Summary)
	}
	if !strings.Contains(r.Steps[3].Summary, "2026-03-01") {
		t.Errorf("unexpected report summary: %s", r.Steps[3].Summary)
	}
}
