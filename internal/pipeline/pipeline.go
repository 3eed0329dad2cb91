package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/collect"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/config"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/database"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/fetch"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/ranking"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/report"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

// historyToleranceDays is how far the prior subscriber reading may sit
// from the start of the growth window.
const historyToleranceDays = 2

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID       string
	EvaluatedAt time.Time
	Steps       []StepResult
	Feed        ranking.Feed
	ReportPath  string
}

// Pipeline orchestrates the collect, fetch, score and report steps.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// Run executes the full pipeline as of evaluatedAt.
func (p *Pipeline) Run(ctx context.Context, evaluatedAt time.Time) *Result {
	r := &Result{RunID: uuid.NewString(), EvaluatedAt: evaluatedAt}

	// Step 1: Collect
	step := p.runCollect(ctx, evaluatedAt)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Fetch descriptions
	step = p.runFetch(ctx)
	r.Steps = append(r.Steps, step)

	// Step 3: Score
	batch, step := p.runScore(ctx, evaluatedAt)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		r.Feed = ranking.ErrorFeed(step.Err)
		return r
	}
	r.Feed = p.Assemble(batch.Channels, 0, 0)

	// Step 4: Report
	step = p.runReport(r, batch)
	r.Steps = append(r.Steps, step)

	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(evaluatedAt time.Time) *Result {
	r := &Result{EvaluatedAt: evaluatedAt}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d channels configured", len(p.cfg.Channels)),
	})

	needing, _ := p.db.GetChannelsNeedingDescription()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d channels need a description", len(needing)),
	})

	stored, _ := p.db.ListChannelIDs()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("[dry-run] %d channels stored for scoring", len(stored)),
	})

	last, _ := p.db.GetLastRunReport()
	if last != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Report",
			Summary: fmt.Sprintf("[dry-run] Last run %s at %s", last.RunID, last.EvaluatedAt),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Report",
			Summary: fmt.Sprintf("[dry-run] Would write report for %s", database.Day(evaluatedAt)),
		})
	}

	return r
}

// Score loads the configured channels from the store and evaluates them
// as of evaluatedAt. The returned channels are ranked.
func (p *Pipeline) Score(ctx context.Context, evaluatedAt time.Time) (*ranking.BatchResult, error) {
	policy := p.cfg.Scoring.WithDefaults()
	raws, err := p.db.LoadRawChannels(p.cfg.Channels, evaluatedAt, database.LoadOptions{
		MaxVideos:            policy.MaxRecentVideos,
		GrowthWindowDays:     policy.GrowthWindowDays,
		HistoryToleranceDays: historyToleranceDays,
	})
	if err != nil {
		return nil, fmt.Errorf("loading channels: %w", err)
	}
	return ScoreRaw(ctx, p.cfg, raws, evaluatedAt), nil
}

// ScoreRaw evaluates collector records that did not come from the store.
func ScoreRaw(ctx context.Context, cfg *config.Config, raws []snapshot.RawChannel, evaluatedAt time.Time) *ranking.BatchResult {
	batch := ranking.NewEvaluator(cfg.Scoring).EvaluateBatch(ctx, raws, evaluatedAt)
	for _, m := range batch.Rejected {
		log.Printf("Skipping channel: %v", m)
	}
	return batch
}

// Assemble pages ranked channels using the configured eligibility and
// page size. A zero limit means the configured page size.
func (p *Pipeline) Assemble(ranked []ranking.RankedChannel, offset, limit int) ranking.Feed {
	if limit <= 0 {
		limit = p.cfg.Feed.PageSize
	}
	return ranking.Assemble(ranked, ranking.FeedOptions{
		MinViralVideos: p.cfg.Scoring.WithDefaults().MinEligibleViralVideos,
		Offset:         offset,
		Limit:          limit,
	})
}

func (p *Pipeline) runCollect(ctx context.Context, evaluatedAt time.Time) StepResult {
	log.Println("Step 1/4: Collecting channels...")
	collector, err := collect.NewCollector(ctx, p.cfg, p.db)
	if err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	result, err := collector.Collect(ctx, evaluatedAt)
	if err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	return StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Collected %d of %d channels (%d via API, %d via feed), %d videos, %d failed",
			result.Channels, result.Requested, result.Sources[collect.SourceAPI], result.Sources[collect.SourceFeed],
			result.Videos, result.Failed),
	}
}

func (p *Pipeline) runFetch(ctx context.Context) StepResult {
	log.Println("Step 2/4: Fetching channel descriptions...")
	fetcher := fetch.NewDescriptionFetcher(p.db, p.cfg.YouTube.ChannelURL, p.cfg.FetchTimeout())
	result, err := fetcher.FetchMissing(ctx)
	if err != nil {
		return StepResult{Name: "Fetch", Err: err}
	}
	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d descriptions, %d failed", result.Fetched, result.Failed),
	}
}

func (p *Pipeline) runScore(ctx context.Context, evaluatedAt time.Time) (*ranking.BatchResult, StepResult) {
	log.Println("Step 3/4: Scoring channels...")
	batch, err := p.Score(ctx, evaluatedAt)
	if err != nil {
		return nil, StepResult{Name: "Score", Err: err}
	}
	if batch.Canceled {
		return batch, StepResult{Name: "Score", Err: ctx.Err()}
	}
	return batch, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("Scored %d channels, %d rejected", len(batch.Channels), len(batch.Rejected)),
	}
}

func (p *Pipeline) runReport(r *Result, batch *ranking.BatchResult) StepResult {
	log.Println("Step 4/4: Writing report...")
	err := p.db.InsertRunReport(database.RunReport{
		RunID:         r.RunID,
		EvaluatedAt:   database.FormatTime(r.EvaluatedAt),
		ChannelCount:  len(batch.Channels),
		RejectedCount: len(batch.Rejected),
		EligibleCount: r.Feed.Total,
	})
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}

	dir := filepath.Join(p.cfg.GetDataDir(), "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	path := filepath.Join(dir, database.Day(r.EvaluatedAt)+".md")
	if err := os.WriteFile(path, []byte(report.Compose(r.Feed, r.EvaluatedAt)), 0o644); err != nil {
		return StepResult{Name: "Report", Err: fmt.Errorf("writing report: %w", err)}
	}
	r.ReportPath = path

	return StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("%s: %d eligible channels, report at %s", r.Feed.Status, r.Feed.Total, path),
	}
}
