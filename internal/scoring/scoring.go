package scoring

import (
	"math"
	"time"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/keywords"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

// Evaluation is the trend evaluation of one channel snapshot.
type Evaluation struct {
	ViralVideoCount int
	Growth14d       *float64
	GrowthVelocity  *float64
	EngagementRate  float64
	QualityScore    float64
	PotentialScore  float64
	TrendScore      float64
	Label           Label
	Niche           keywords.Niche
	TopKeywords     []string
}

// Score weights. Each group sums to 1 so every score stays within [0, 10].
const (
	reachWeight    = 0.5
	hitRateWeight  = 0.3
	activityWeight = 0.2

	viralWeight  = 0.6
	growthWeight = 0.4

	qualityShare   = 0.4
	potentialShare = 0.6

	maxScore = 10.0
)

// IsViral reports whether v reached the view threshold within the window.
func IsViral(v snapshot.VideoSample, at time.Time, p Policy) bool {
	return v.ViewCount >= p.ViralViewThreshold && v.AgeDays(at) <= p.ViralWindowDays
}

// CountViral counts the viral videos among the snapshot's recent uploads.
func CountViral(s snapshot.ChannelSnapshot, p Policy) int {
	n := 0
	for _, v := range s.RecentVideos {
		if IsViral(v, s.EvaluatedAt, p) {
			n++
		}
	}
	return n
}

// Growth returns relative subscriber growth over the growth window and its
// per-day velocity. Both are nil when there is no usable prior reading.
func Growth(s snapshot.ChannelSnapshot, p Policy) (growth, velocity *float64) {
	if s.SubscriberCount14dAgo == nil || *s.SubscriberCount14dAgo <= 0 {
		return nil, nil
	}
	prior := float64(*s.SubscriberCount14dAgo)
	g := (float64(s.SubscriberCount) - prior) / prior
	vel := g / float64(p.GrowthWindowDays)
	return &g, &vel
}

// EngagementRate is the mean like-to-view ratio over videos that have views.
func EngagementRate(s snapshot.ChannelSnapshot) float64 {
	var sum float64
	n := 0
	for _, v := range s.RecentVideos {
		if v.ViewCount <= 0 {
			continue
		}
		sum += float64(v.LikeCount) / float64(v.ViewCount)
		n++
	}
	if n == 0 {
		return 0
	}
	return round(sum / float64(n))
}

// QualityScore rates the consistency of recent uploads: audience reach
// relative to subscribers, share of hits and recent activity. All three are
// taken over MaxRecentVideos, so an extra upload never lowers the score.
func QualityScore(s snapshot.ChannelSnapshot, p Policy) float64 {
	if len(s.RecentVideos) == 0 {
		return 0
	}

	var views float64
	hits, active := 0, 0
	for _, v := range s.RecentVideos {
		views += float64(v.ViewCount)
		if v.ViewCount >= p.HitViewThreshold {
			hits++
		}
		if v.AgeDays(s.EvaluatedAt) <= p.ViralWindowDays {
			active++
		}
	}

	window := float64(p.MaxRecentVideos)
	ratio := views / window / math.Max(float64(s.SubscriberCount), 1)
	reach := ratio / (ratio + 1)

	hitRate := clamp(float64(hits)/window, 0, 1)
	activity := clamp(float64(active)/window, 0, 1)

	score := maxScore * (reachWeight*reach + hitRateWeight*hitRate + activityWeight*activity)
	return round(clamp(score, 0, maxScore))
}

// PotentialScore rewards breakout videos and subscriber momentum. A nil
// velocity contributes nothing.
func PotentialScore(viral int, velocity *float64, p Policy) float64 {
	v := clamp(float64(viral)/float64(p.ViralSaturation), 0, 1)

	var g float64
	if velocity != nil {
		g = clamp(*velocity/p.GrowthVelocitySaturation, 0, 1)
	}

	score := maxScore * (viralWeight*v + growthWeight*g)
	return round(clamp(score, 0, maxScore))
}

// TrendScore combines quality and potential into the ranking key.
func TrendScore(quality, potential float64) float64 {
	return round(clamp(qualityShare*quality+potentialShare*potential, 0, maxScore))
}

// Evaluate computes the full trend evaluation of s. It reads no clock and
// keeps no state.
func Evaluate(s snapshot.ChannelSnapshot, p Policy) Evaluation {
	p = p.WithDefaults()

	viral := CountViral(s, p)
	growth, velocity := Growth(s, p)
	quality := QualityScore(s, p)
	potential := PotentialScore(viral, velocity, p)
	trend := TrendScore(quality, potential)

	doc := keywords.Document{
		Name:        s.Name,
		Description: s.Description,
		Titles:      s.Titles(),
		Tags:        s.Keywords,
	}

	return Evaluation{
		ViralVideoCount: viral,
		Growth14d:       growth,
		GrowthVelocity:  velocity,
		EngagementRate:  EngagementRate(s),
		QualityScore:    quality,
		PotentialScore:  potential,
		TrendScore:      trend,
		Label:           LabelFor(trend, viral, velocity),
		Niche:           keywords.Classify(keywords.Tokens(doc)),
		TopKeywords:     keywords.Extract(doc, p.MaxKeywords),
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Min(math.Max(x, lo), hi)
}

func round(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
