package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/cache"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/collect"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/config"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/database"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/pipeline"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/ranking"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/server"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/snapshot"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shortsradar",
	Short:   "Trending YouTube Shorts channels",
	Long:    "shortsradar collects channel statistics, scores channels for virality and growth, and serves a ranked trending feed.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetFlags(log.LstdFlags)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			setVerbose(verbose)
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		setVerbose(verbose || strings.EqualFold(cfg.Logging.Level, "DEBUG"))
		return nil
	},
}

func setVerbose(on bool) {
	if on {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("shortsradar", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/shortsradar/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to list your channels and set the YouTube API key variable.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n", database.FormatDayDisplay(database.GetToday()))
		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Channels:")
		fmt.Printf("  Configured: %d\n", len(cfg.Channels))
		fmt.Printf("  Stored: %d\n", stats.Channels)
		fmt.Printf("  With subscriber counts: %d\n", stats.ChannelsWithStats)
		fmt.Printf("  Videos: %d\n", stats.Videos)
		fmt.Printf("  Days of history: %d\n", stats.StatsDays)

		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.RunReports)
		last, err := db.GetLastRunReport()
		if err != nil {
			return err
		}
		if last != nil {
			fmt.Printf("  Last: %s (%d scored, %d rejected, %d eligible)\n",
				last.EvaluatedAt, last.ChannelCount, last.RejectedCount, last.EligibleCount)
		}

		key := "not set, feeds only"
		if cfg.APIKey() != "" {
			key = "set"
		}
		fmt.Printf("\nYouTube API key (%s): %s\n", cfg.YouTube.APIKeyEnv, key)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect statistics of the configured channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		collector, err := collect.NewCollector(ctx, cfg, db)
		if err != nil {
			return err
		}

		fmt.Println("Collecting channels...")
		result, err := collector.Collect(ctx, time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Channels: %d of %d\n", result.Channels, result.Requested)
		fmt.Printf("  Videos: %d\n", result.Videos)
		fmt.Printf("  Stats recorded: %d\n", result.StatsRecorded)
		fmt.Printf("  Failed: %d\n", result.Failed)

		if len(result.Sources) > 0 {
			fmt.Println("\nChannels by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> fetch -> score -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pipe := pipeline.New(cfg, db)
		evaluatedAt := time.Now().UTC()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(evaluatedAt)
		} else {
			result = pipe.Run(ctx, evaluatedAt)
		}
		printSteps(result)

		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'shortsradar serve' to browse the trending feed.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/4: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- score command ---

var (
	scoreInput    string
	scoreAt       string
	scoreMinViral int
	scoreLimit    int
	scoreOffset   int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score collector records from a JSON file and print the feed",
	Long: "Reads a JSON array of channel records (or - for stdin), evaluates them and prints the\n" +
		"ranked trending feed as JSON. Nothing is read from or written to the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		raws, err := readRawChannels(scoreInput)
		if err != nil {
			return err
		}

		evaluatedAt := time.Now().UTC()
		if scoreAt != "" {
			t, ok := snapshot.ParseTime(scoreAt)
			if !ok {
				return fmt.Errorf("invalid --at time %q", scoreAt)
			}
			evaluatedAt = t.UTC()
		}

		minViral := cfg.Scoring.WithDefaults().MinEligibleViralVideos
		if cmd.Flags().Changed("min-viral") {
			minViral = scoreMinViral
		}

		batch := pipeline.ScoreRaw(cmd.Context(), cfg, raws, evaluatedAt)
		feed := ranking.Assemble(batch.Channels, ranking.FeedOptions{
			MinViralVideos: minViral,
			Offset:         scoreOffset,
			Limit:          scoreLimit,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(server.TrendingResponse{
			Feed:        feed,
			EvaluatedAt: database.FormatTime(evaluatedAt),
			Rejected:    batch.Rejections(),
		})
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "-", "JSON file of channel records, - for stdin")
	scoreCmd.Flags().StringVar(&scoreAt, "at", "", "Evaluation time (RFC 3339), defaults to now")
	scoreCmd.Flags().IntVar(&scoreMinViral, "min-viral", 0, "Minimum viral videos for a channel to be listed")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", ranking.DefaultPageSize, "Page size")
	scoreCmd.Flags().IntVar(&scoreOffset, "offset", 0, "Page offset")
}

func readRawChannels(path string) ([]snapshot.RawChannel, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var raws []snapshot.RawChannel
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decoding channel records: %w", err)
	}
	return raws, nil
}

// --- serve command ---

var (
	servePort int
	noRefresh bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trending feed server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		feedCache, err := cache.New(ctx, cfg)
		if err != nil {
			log.Printf("Serving without cache: %v", err)
		}
		defer feedCache.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") || port == 0 {
			port = servePort
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.New(cfg, db, feedCache).Serve(gctx, port)
		})

		if !noRefresh && cfg.Schedule.Refresh != "" {
			scheduler := newScheduler()
			_, err := scheduler.AddFunc(cfg.Schedule.Refresh, func() {
				refresh(gctx, db, feedCache)
			})
			if err != nil {
				return fmt.Errorf("invalid schedule.refresh %q: %w", cfg.Schedule.Refresh, err)
			}
			g.Go(func() error {
				log.Printf("Refresh scheduled: %s", cfg.Schedule.Refresh)
				scheduler.Start()
				<-gctx.Done()
				<-scheduler.Stop().Done()
				return nil
			})
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
	serveCmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Disable the scheduled pipeline refresh")
}

// skipOverlap drops a scheduled refresh while the previous one still runs.
var skipOverlap = cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))

func newScheduler() *cron.Cron {
	return cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default())), skipOverlap))
}

func refresh(ctx context.Context, db *database.DB, c *cache.Cache) {
	log.Println("Scheduled refresh starting")
	result := pipeline.New(cfg, db).Run(ctx, time.Now().UTC())
	for _, step := range result.Steps {
		if step.Err != nil {
			log.Printf("Refresh step %s failed: %v", step.Name, step.Err)
		} else {
			log.Printf("Refresh step %s: %s", step.Name, step.Summary)
		}
	}
	c.Invalidate(ctx)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "shortsradar.db")
	return database.Open(dbPath)
}
