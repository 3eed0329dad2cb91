package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func count(n int64) *int64 { return &n }

func TestUpsertChannel(t *testing.T) {
	db := openTestDB(t)
	err := db.UpsertChannel(Channel{
		ChannelID:       "UC1",
		Name:            "First",
		Description:     "About",
		CreatedAt:       ptr("2024-01-01T00:00:00Z"),
		SubscriberCount: count(1000),
		ViewCount:       50_000,
		VideoCount:      12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err := db.GetChannel("UC1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil || c.Name != "First" || *c.SubscriberCount != 1000 {
		t.Fatalf("unexpected channel: %+v", c)
	}
}

func TestUpsertChannelKeepsKnownValues(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(Channel{ChannelID: "UC1", Name: "API Name", Description: "From API", SubscriberCount: count(500), ViewCount: 900})

	// A feed refresh carries no subscriber count or description.
	if err := db.UpsertChannel(Channel{ChannelID: "UC1", Name: "Feed Name"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := db.GetChannel("UC1")
	if c.Name != "Feed Name" {
		t.Errorf("expected name updated, got %q", c.Name)
	}
	if c.Description != "From API" {
		t.Errorf("expected description kept, got %q", c.Description)
	}
	if c.SubscriberCount == nil || *c.SubscriberCount != 500 {
		t.Errorf("expected subscriber count kept, got %v", c.SubscriberCount)
	}
	if c.ViewCount != 900 {
		t.Errorf("expected view count kept, got %d", c.ViewCount)
	}
}

func TestGetChannelMissing(t *testing.T) {
	db := openTestDB(t)
	c, err := db.GetChannel("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Error("expected nil for unknown channel")
	}
}

func TestChannelsNeedingDescription(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(Channel{ChannelID: "UC1", Name: "No description"})
	db.UpsertChannel(Channel{ChannelID: "UC2", Name: "Has description", Description: "Text"})
	db.UpsertChannel(Channel{ChannelID: "UC3", Name: "Tried already"})
	db.MarkDescriptionAttempted("UC3")

	needing, err := db.GetChannelsNeedingDescription()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(needing) != 1 || needing[0].ChannelID != "UC1" {
		t.Fatalf("expected only UC1, got %+v", needing)
	}

	if err := db.UpdateDescription("UC1", "Fetched"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, _ := db.GetChannel("UC1")
	if c.Description != "Fetched" || !c.DescriptionFetched {
		t.Errorf("expected fetched description, got %+v", c)
	}
}

func TestSubscribersOn(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(Channel{ChannelID: "UC1"})
	db.RecordStats(StatsPoint{ChannelID: "UC1", Day: "2026-02-13", SubscriberCount: 900})
	db.RecordStats(StatsPoint{ChannelID: "UC1", Day: "2026-02-17", SubscriberCount: 950})
	db.RecordStats(StatsPoint{ChannelID: "UC1", Day: "2026-03-01", SubscriberCount: 1000})

	day := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)

	subs, err := db.SubscribersOn("UC1", day, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subs == nil || *subs != 950 {
		t.Errorf("expected closest reading 950, got %v", subs)
	}

	subs, _ = db.SubscribersOn("UC1", day, 0)
	if subs != nil {
		t.Errorf("expected no exact reading, got %d", *subs)
	}

	// Equal distance prefers the earlier day.
	subs, _ = db.SubscribersOn("UC1", time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC), 5)
	if subs == nil || *subs != 900 {
		t.Errorf("expected earlier reading 900, got %v", subs)
	}
}

func TestRecordStatsReplacesSameDay(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(Channel{ChannelID: "UC1"})
	db.RecordStats(StatsPoint{ChannelID: "UC1", Day: "2026-03-01", SubscriberCount: 1})
	db.RecordStats(StatsPoint{ChannelID: "UC1", Day: "2026-03-01", SubscriberCount: 2})

	subs, _ := db.SubscribersOn("UC1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0)
	if subs == nil || *subs != 2 {
		t.Errorf("expected replaced reading 2, got %v", subs)
	}
}

func TestRecentVideos(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(Channel{ChannelID: "UC1"})
	db.UpsertVideo(Video{VideoID: "a", ChannelID: "UC1", Title: "Old", PublishedAt: "2026-01-01T00:00:00Z", ViewCount: 5})
	db.UpsertVideo(Video{VideoID: "b", ChannelID: "UC1", Title: "New", PublishedAt: "2026-02-01T00:00:00Z", ViewCount: 7, DurationSeconds: 30})
	db.UpsertVideo(Video{VideoID: "c", ChannelID: "UC1", Title: "Middle", PublishedAt: "2026-01-15T00:00:00Z"})

	// Refresh without title or duration keeps them.
	db.UpsertVideo(Video{VideoID: "b", ChannelID: "UC1", PublishedAt: "2026-02-01T00:00:00Z", ViewCount: 70})

	videos, err := db.GetRecentVideos("UC1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 2 || videos[0].VideoID != "b" || videos[1].VideoID != "c" {
		t.Fatalf("unexpected order: %+v", videos)
	}
	if videos[0].Title != "New" || videos[0].DurationSeconds != 30 || videos[0].ViewCount != 70 {
		t.Errorf("unexpected refreshed video: %+v", videos[0])
	}
}

func TestLoadRawChannels(t *testing.T) {
	db := openTestDB(t)
	eval := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db.UpsertChannel(Channel{ChannelID: "UC1", Name: "One", SubscriberCount: count(100_000), CreatedAt: ptr("2025-01-01T00:00:00Z")})
	db.RecordStats(StatsPoint{ChannelID: "UC1", Day: "2026-02-15", SubscriberCount: 90_000})
	db.UpsertVideo(Video{VideoID: "v1", ChannelID: "UC1", Title: "Clip", PublishedAt: "2026-02-20T00:00:00Z", ViewCount: 2_000_000})
	db.UpsertChannel(Channel{ChannelID: "UC2", Name: "Feed only"})

	raws, err := db.LoadRawChannels([]string{"UC1", "UC2", "missing"}, eval, LoadOptions{MaxVideos: 10, GrowthWindowDays: 14, HistoryToleranceDays: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 raw channels, got %d", len(raws))
	}

	one := raws[0]
	if one.SubscriberCount.Value != 100_000 || !one.SubscriberCount.Valid {
		t.Errorf("unexpected subscriber count: %+v", one.SubscriberCount)
	}
	if !one.SubscriberCount14dAgo.Set || one.SubscriberCount14dAgo.Value != 90_000 {
		t.Errorf("expected prior reading 90000, got %+v", one.SubscriberCount14dAgo)
	}
	if len(one.Videos.Items) != 1 || !one.Videos.Items[0].PublishedAt.Valid {
		t.Errorf("unexpected videos: %+v", one.Videos)
	}
	if !one.CreatedAt.Valid {
		t.Error("expected creation time")
	}

	two := raws[1]
	if two.SubscriberCount.Set {
		t.Error("expected unknown subscriber count to stay unset")
	}
	if !two.Videos.Set || len(two.Videos.Items) != 0 {
		t.Errorf("expected empty video list, got %+v", two.Videos)
	}
}

func TestLoadRawChannelsAll(t *testing.T) {
	db := openTestDB(t)
	db.UpsertChannel(Channel{ChannelID: "UCb", SubscriberCount: count(1)})
	db.UpsertChannel(Channel{ChannelID: "UCa", SubscriberCount: count(1)})

	raws, err := db.LoadRawChannels(nil, time.Now(), LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 2 || raws[0].ChannelID.String() != "UCa" {
		t.Errorf("expected both channels in id order, got %d", len(raws))
	}
}

func TestRunReports(t *testing.T) {
	db := openTestDB(t)

	last, err := db.GetLastRunReport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != nil {
		t.Error("expected no run report on empty db")
	}

	db.InsertRunReport(RunReport{RunID: "r1", EvaluatedAt: "2026-02-28T00:00:00Z", ChannelCount: 3})
	db.InsertRunReport(RunReport{RunID: "r2", EvaluatedAt: "2026-03-01T00:00:00Z", ChannelCount: 4, RejectedCount: 1, EligibleCount: 2})

	last, err = db.GetLastRunReport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last == nil || last.RunID != "r2" || last.RejectedCount != 1 {
		t.Errorf("unexpected last report: %+v", last)
	}

	if err := db.InsertRunReport(RunReport{RunID: "r2", EvaluatedAt: "x"}); err == nil {
		t.Error("expected duplicate run id to fail")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Channels != 0 {
		t.Errorf("expected 0 channels, got %d", stats.Channels)
	}

	db.UpsertChannel(Channel{ChannelID: "UC1", SubscriberCount: count(10)})
	db.UpsertChannel(Channel{ChannelID: "UC2"})
	db.UpsertVideo(Video{VideoID: "v", ChannelID: "UC1", PublishedAt: "2026-01-01T00:00:00Z"})

	stats, _ = db.GetStats()
	if stats.Channels != 2 || stats.ChannelsWithStats != 1 {
		t.Errorf("unexpected channel stats: %+v", stats)
	}
	if stats.Videos != 1 {
		t.Errorf("expected 1 video, got %d", stats.Videos)
	}
}

func TestDayHelpers(t *testing.T) {
	today := GetToday()
	if len(today) != 10 || today[4] != '-' || today[7] != '-' {
		t.Errorf("expected YYYY-MM-DD format, got %q", today)
	}
	if got := FormatDayDisplay("2026-02-06"); got != "Feb 06, 2026" {
		t.Errorf("expected 'Feb 06, 2026', got %q", got)
	}
	if got := FormatDayDisplay("bad"); got != "bad" {
		t.Errorf("expected passthrough, got %q", got)
	}
}
