package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/scoring"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

var evalTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rawChannel(id string, subs int64, viralVideos int) snapshot.RawChannel {
	var videos []snapshot.RawVideo
	for i := 0; i < 10; i++ {
		views := int64(20_000)
		if i < viralVideos {
			views = 2_000_000
		}
		videos = append(videos, snapshot.RawVideo{
			VideoID:     snapshot.NewText(fmt.Sprintf("%s-v%d", id, i)),
			Title:       snapshot.NewText(fmt.Sprintf("Upload %d", i)),
			ViewCount:   snapshot.NewCount(views),
			PublishedAt: snapshot.NewTimestamp(evalTime.AddDate(0, 0, -(i + 1))),
		})
	}
	return snapshot.RawChannel{
		ChannelID:       snapshot.NewText(id),
		Name:            snapshot.NewText("Channel " + id),
		SubscriberCount: snapshot.NewCount(subs),
		Videos:          snapshot.NewVideoList(videos),
	}
}

func TestEvaluateBatchPartialFailure(t *testing.T) {
	raws := []snapshot.RawChannel{
		rawChannel("UC1", 100_000, 4),
		rawChannel("UC2", 50_000, 1),
		rawChannel("", 10_000, 2),
		rawChannel("UC4", 10_000, 0),
		rawChannel("UC5", 1_000_000, 2),
	}
	raws[2].ChannelID = snapshot.Text{}

	result := (&Evaluator{Policy: scoring.DefaultPolicy(), Workers: 3}).EvaluateBatch(context.Background(), raws, evalTime)

	if len(result.Channels) != 4 {
		t.Fatalf("expected 4 evaluations, got %d", len(result.Channels))
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Field != "channel_id" {
		t.Fatalf("expected one channel_id rejection, got %+v", result.Rejected)
	}
	if result.Canceled {
		t.Error("did not expect cancellation")
	}
	for i := 1; i < len(result.Channels); i++ {
		if Less(result.Channels[i], result.Channels[i-1]) {
			t.Errorf("channels not ranked at %d", i)
		}
	}
	if result.Channels[0].ChannelID != "UC1" {
		t.Errorf("expected UC1 first, got %s", result.Channels[0].ChannelID)
	}
}

func TestEvaluateBatchDuplicateChannel(t *testing.T) {
	first := rawChannel("UC1", 100_000, 4)
	second := rawChannel("UC1", 100_000, 0)
	second.Name = snapshot.NewText("Impostor")

	result := NewEvaluator(scoring.DefaultPolicy()).EvaluateBatch(context.Background(),
		[]snapshot.RawChannel{first, rawChannel("UC2", 50_000, 1), second}, evalTime)

	if len(result.Channels) != 2 {
		t.Fatalf("expected 2 ranked channels, got %d", len(result.Channels))
	}
	for _, c := range result.Channels {
		if c.Name == "Impostor" {
			t.Error("expected the first record of UC1 to be kept")
		}
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("expected one rejection, got %+v", result.Rejected)
	}
	r := result.Rejected[0]
	if r.ChannelID != "UC1" || r.Field != "channel_id" || r.Reason != "is duplicated" {
		t.Errorf("unexpected rejection: %+v", r)
	}
	if got := result.Rejections(); len(got) != 1 || got[0] != (Rejection{ChannelID: "UC1", Field: "channel_id", Reason: "is duplicated"}) {
		t.Errorf("unexpected rejections: %+v", got)
	}
}

func TestEvaluateBatchMatchesSequential(t *testing.T) {
	var raws []snapshot.RawChannel
	for i := 0; i < 40; i++ {
		raws = append(raws, rawChannel(fmt.Sprintf("UC%02d", i), int64(1000*(i+1)), i%6))
	}

	parallel := (&Evaluator{Workers: 8}).EvaluateBatch(context.Background(), raws, evalTime)
	sequential := (&Evaluator{Workers: 1}).EvaluateBatch(context.Background(), raws, evalTime)

	a, _ := json.Marshal(parallel.Channels)
	b, _ := json.Marshal(sequential.Channels)
	if string(a) != string(b) {
		t.Error("parallel and sequential evaluation differ")
	}
}

func TestEvaluateBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raws := []snapshot.RawChannel{rawChannel("UC1", 10, 1), rawChannel("UC2", 10, 1)}
	result := NewEvaluator(scoring.DefaultPolicy()).EvaluateBatch(ctx, raws, evalTime)

	if !result.Canceled {
		t.Error("expected canceled result")
	}
	if len(result.Channels) != 0 {
		t.Errorf("expected no evaluations, got %d", len(result.Channels))
	}
	if result.Channels == nil {
		t.Error("expected non-nil channel list")
	}
}

func TestRankTieBreak(t *testing.T) {
	channels := []RankedChannel{
		{ChannelID: "c", TrendScore: 5, ViralVideoCount: 1},
		{ChannelID: "b", TrendScore: 5, ViralVideoCount: 2},
		{ChannelID: "a", TrendScore: 5, ViralVideoCount: 1},
		{ChannelID: "d", TrendScore: 6, ViralVideoCount: 0},
	}
	Rank(channels)

	want := []string{"d", "b", "a", "c"}
	for i, id := range want {
		if channels[i].ChannelID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, channels[i].ChannelID)
		}
	}
}

func TestLessIsStrict(t *testing.T) {
	a := RankedChannel{ChannelID: "a", TrendScore: 3, ViralVideoCount: 1}
	b := RankedChannel{ChannelID: "b", TrendScore: 3, ViralVideoCount: 1}
	if Less(a, b) == Less(b, a) {
		t.Error("distinct channels compared equal")
	}
	if Less(a, a) {
		t.Error("channel ranks before itself")
	}
}

func TestGrowthSerializesAsNull(t *testing.T) {
	result := NewEvaluator(scoring.DefaultPolicy()).EvaluateBatch(context.Background(),
		[]snapshot.RawChannel{rawChannel("UC1", 100, 1)}, evalTime)

	data, err := json.Marshal(result.Channels[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := fields["growth_14d"]; !ok || v != nil {
		t.Errorf("expected growth_14d null, got %v", v)
	}
	if _, ok := fields["top_keywords"].([]any); !ok {
		t.Errorf("expected top_keywords list, got %v", fields["top_keywords"])
	}
}
