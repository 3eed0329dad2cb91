package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/cache"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/config"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/database"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/pipeline"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/ranking"
	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/report"
)

// MaxPageSize bounds the limit parameter of the trending endpoint.
const MaxPageSize = 200

var md = goldmark.New()

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>shortsradar</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
hr { border: 0; border-top: 1px solid #ddd; }
</style>
</head>
<body>
{{.}}
</body>
</html>`))

// TrendingResponse is the body of GET /channels/trending.
type TrendingResponse struct {
	ranking.Feed
	EvaluatedAt string `json:"evaluated_at"`

	// Rejected lists the channels excluded as malformed, if any.
	Rejected []ranking.Rejection `json:"rejected,omitempty"`
}

// Server is the HTTP server for the trending feed.
type Server struct {
	cfg   *config.Config
	pipe  *pipeline.Pipeline
	cache *cache.Cache
	mux   *http.ServeMux

	// now is the evaluation clock, read once per request.
	now func() time.Time
}

// New creates a new Server. c may be nil.
func New(cfg *config.Config, db *database.DB, c *cache.Cache) *Server {
	s := &Server{
		cfg:   cfg,
		pipe:  pipeline.New(cfg, db),
		cache: c,
		mux:   http.NewServeMux(),
		now:   time.Now,
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /channels/trending", s.handleTrending)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	evaluatedAt := s.now().UTC()

	opts, err := s.feedOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, TrendingResponse{
			Feed:        ranking.ErrorFeed(err),
			EvaluatedAt: database.FormatTime(evaluatedAt),
		})
		return
	}

	key := cache.Key(opts.MinViralVideos, opts.Offset, opts.Limit)
	if body, ok := s.cache.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		w.Write(body)
		return
	}

	batch, err := s.pipe.Score(r.Context(), evaluatedAt)
	if err != nil {
		log.Printf("Trending feed failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, TrendingResponse{
			Feed:        ranking.ErrorFeed(errors.New("channel data unavailable")),
			EvaluatedAt: database.FormatTime(evaluatedAt),
		})
		return
	}

	resp := TrendingResponse{
		Feed:        ranking.Assemble(batch.Channels, opts),
		EvaluatedAt: database.FormatTime(evaluatedAt),
		Rejected:    batch.Rejections(),
	}
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !batch.Canceled {
		s.cache.Set(r.Context(), key, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	evaluatedAt := s.now().UTC()

	var feed ranking.Feed
	batch, err := s.pipe.Score(r.Context(), evaluatedAt)
	if err != nil {
		log.Printf("Report failed: %v", err)
		feed = ranking.ErrorFeed(errors.New("channel data unavailable"))
	} else {
		feed = s.pipe.Assemble(batch.Channels, 0, 0)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, renderMarkdown(report.Compose(feed, evaluatedAt))); err != nil {
		log.Printf("Error rendering report: %v", err)
	}
}

// feedOptions reads limit, offset and min_viral. Absent parameters take
// the configured defaults.
func (s *Server) feedOptions(r *http.Request) (ranking.FeedOptions, error) {
	opts := ranking.FeedOptions{
		MinViralVideos: s.cfg.Scoring.WithDefaults().MinEligibleViralVideos,
		Limit:          s.cfg.Feed.PageSize,
	}
	if opts.Limit <= 0 {
		opts.Limit = ranking.DefaultPageSize
	}

	q := r.URL.Query()
	var err error
	if opts.Limit, err = intParam(q.Get("limit"), opts.Limit, 1, MaxPageSize); err != nil {
		return opts, fmt.Errorf("limit: %w", err)
	}
	if opts.Offset, err = intParam(q.Get("offset"), 0, 0, -1); err != nil {
		return opts, fmt.Errorf("offset: %w", err)
	}
	if opts.MinViralVideos, err = intParam(q.Get("min_viral"), opts.MinViralVideos, 0, -1); err != nil {
		return opts, fmt.Errorf("min_viral: %w", err)
	}
	return opts, nil
}

// intParam parses an integer query value within [lo, hi]; a negative hi
// means unbounded.
func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	if n < lo || (hi >= 0 && n > hi) {
		if hi >= 0 {
			return 0, fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return 0, fmt.Errorf("must be at least %d", lo)
	}
	return n, nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve listens on the given port until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Println("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	}
}
