package ranking

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/keywords"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/scoring"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

// RankedChannel is one channel of the trending feed: the identity and
// totals of its snapshot plus its evaluation.
type RankedChannel struct {
	ChannelID       string         `json:"channel_id"`
	Name            string         `json:"name"`
	SubscriberCount int64          `json:"subscriber_count"`
	ViewCount       int64          `json:"view_count"`
	VideoCount      int64          `json:"video_count"`
	ChannelAgeDays  int            `json:"channel_age_days"`
	ViralVideoCount int            `json:"viral_video_count"`
	Growth14d       *float64       `json:"growth_14d"`
	GrowthVelocity  *float64       `json:"growth_velocity"`
	EngagementRate  float64        `json:"engagement_rate"`
	QualityScore    float64        `json:"quality_score"`
	PotentialScore  float64        `json:"potential_score"`
	TrendScore      float64        `json:"trend_score"`
	Label           scoring.Label  `json:"label"`
	Niche           keywords.Niche `json:"niche"`
	TopKeywords     []string       `json:"top_keywords"`
}

// NewRankedChannel pairs a snapshot with its evaluation.
func NewRankedChannel(s snapshot.ChannelSnapshot, e scoring.Evaluation) RankedChannel {
	kw := e.TopKeywords
	if kw == nil {
		kw = []string{}
	}
	return RankedChannel{
		ChannelID:       s.ChannelID,
		Name:            s.Name,
		SubscriberCount: s.SubscriberCount,
		ViewCount:       s.ViewCount,
		VideoCount:      s.VideoCount,
		ChannelAgeDays:  s.AgeDays(),
		ViralVideoCount: e.ViralVideoCount,
		Growth14d:       e.Growth14d,
		GrowthVelocity:  e.GrowthVelocity,
		EngagementRate:  e.EngagementRate,
		QualityScore:    e.QualityScore,
		PotentialScore:  e.PotentialScore,
		TrendScore:      e.TrendScore,
		Label:           e.Label,
		Niche:           e.Niche,
		TopKeywords:     kw,
	}
}

// BatchResult holds the outcome of evaluating a batch of raw channels.
// Channels is ranked. Rejected lists the records that could not be
// normalized, in input order.
type BatchResult struct {
	Channels []RankedChannel
	Rejected []*snapshot.MalformedSnapshot

	// Canceled is set when the context ended before every record was
	// evaluated; Channels then holds the completed subset.
	Canceled bool
}

// Rejection is a channel excluded from a batch, as reported to callers.
type Rejection struct {
	ChannelID string `json:"channel_id"`
	Field     string `json:"field"`
	Reason    string `json:"reason"`
}

// Rejections lists the excluded records in input order.
func (b *BatchResult) Rejections() []Rejection {
	out := make([]Rejection, 0, len(b.Rejected))
	for _, m := range b.Rejected {
		out = append(out, Rejection{ChannelID: m.ChannelID, Field: m.Field, Reason: m.Reason})
	}
	return out
}

// Evaluator scores batches of raw channels concurrently.
type Evaluator struct {
	Policy  scoring.Policy
	Workers int
}

// NewEvaluator creates an evaluator for policy with one worker per CPU.
func NewEvaluator(policy scoring.Policy) *Evaluator {
	return &Evaluator{Policy: policy.WithDefaults(), Workers: runtime.NumCPU()}
}

type outcome struct {
	done     bool
	channel  RankedChannel
	rejected *snapshot.MalformedSnapshot
}

// EvaluateBatch normalizes and evaluates every raw record against
// evaluatedAt, one independent task per record. Malformed records are
// collected in Rejected and never stop the batch. Only the first valid
// record of a channel ID is ranked; later ones are rejected. Cancelling ctx stops
// scheduling new records; the result holds what had completed.
func (e *Evaluator) EvaluateBatch(ctx context.Context, raws []snapshot.RawChannel, evaluatedAt time.Time) *BatchResult {
	policy := e.Policy.WithDefaults()
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}

	// Each task writes only its own slot.
	outcomes := make([]outcome, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	canceled := false
	for i := range raws {
		if gctx.Err() != nil {
			canceled = true
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = evaluateOne(raws[i], evaluatedAt, policy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		canceled = true
	}

	result := &BatchResult{Channels: []RankedChannel{}, Canceled: canceled}
	seen := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		switch {
		case !o.done:
		case o.rejected != nil:
			result.Rejected = append(result.Rejected, o.rejected)
		case seen[o.channel.ChannelID]:
			result.Rejected = append(result.Rejected, &snapshot.MalformedSnapshot{
				ChannelID: o.channel.ChannelID,
				Field:     "channel_id",
				Reason:    "is duplicated",
			})
		default:
			seen[o.channel.ChannelID] = true
			result.Channels = append(result.Channels, o.channel)
		}
	}
	Rank(result.Channels)
	return result
}

func evaluateOne(raw snapshot.RawChannel, evaluatedAt time.Time, policy scoring.Policy) outcome {
	s, err := snapshot.Normalize(raw, evaluatedAt, policy.MaxRecentVideos)
	if err != nil {
		var malformed *snapshot.MalformedSnapshot
		if !errors.As(err, &malformed) {
			malformed = &snapshot.MalformedSnapshot{Field: "record", Reason: err.Error()}
		}
		return outcome{done: true, rejected: malformed}
	}
	return outcome{done: true, channel: NewRankedChannel(s, scoring.Evaluate(s, policy))}
}

// Rank sorts channels by trend score descending, then viral video count
// descending, then channel ID ascending.
func Rank(channels []RankedChannel) {
	sort.SliceStable(channels, func(i, j int) bool {
		return Less(channels[i], channels[j])
	})
}

// Less reports whether a ranks before b.
func Less(a, b RankedChannel) bool {
	if a.TrendScore != b.TrendScore {
		return a.TrendScore > b.TrendScore
	}
	if a.ViralVideoCount != b.ViralVideoCount {
		return a.ViralVideoCount > b.ViralVideoCount
	}
	return a.ChannelID < b.ChannelID
}
