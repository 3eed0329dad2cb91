package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/Kaiz3n-ios/youtube-shorts-platform/internal/database"
)

// MaxDescriptionRunes bounds a stored description.
const MaxDescriptionRunes = 2000

const minDescriptionRunes = 20

// maxPageBytes caps how much of a channel page is read.
const maxPageBytes = 4 << 20

// Result holds the results of a description fetch run.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// DescriptionFetcher backfills empty channel descriptions from the public
// channel page via readability extraction.
type DescriptionFetcher struct {
	db      *database.DB
	client  *http.Client
	pageURL string
}

// NewDescriptionFetcher creates a fetcher for channel pages under pageURL,
// e.g. https://www.youtube.com/channel/.
func NewDescriptionFetcher(db *database.DB, pageURL string, timeout time.Duration) *DescriptionFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &DescriptionFetcher{
		db:      db,
		pageURL: pageURL,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissing fetches descriptions for channels that have none. After an
// HTTP error status the host is skipped for the rest of the run.
func (f *DescriptionFetcher) FetchMissing(ctx context.Context) (*Result, error) {
	channels, err := f.db.GetChannelsNeedingDescription()
	if err != nil {
		return nil, err
	}

	if len(channels) == 0 {
		log.Println("No channels need a description")
		return &Result{}, nil
	}

	result := &Result{}
	failedHosts := make(map[string]struct{})

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageURL := f.pageURL + url.PathEscape(ch.ChannelID)
		host := ""
		if u, err := url.Parse(pageURL); err == nil {
			host = strings.ToLower(u.Host)
		}

		if _, failed := failedHosts[host]; failed {
			f.db.MarkDescriptionAttempted(ch.ChannelID)
			result.Skipped++
			continue
		}

		description, httpErr := f.fetchDescription(ctx, pageURL)
		if httpErr != nil {
			f.db.MarkDescriptionAttempted(ch.ChannelID)
			result.Failed++
			if host != "" {
				failedHosts[host] = struct{}{}
			}
			log.Printf("HTTP %v for %s, skipping remaining pages on %s", httpErr, pageURL, host)
			continue
		}

		if description == "" {
			f.db.MarkDescriptionAttempted(ch.ChannelID)
			result.Failed++
			log.Printf("No extractable description from: %s", pageURL)
			continue
		}

		if err := f.db.UpdateDescription(ch.ChannelID, description); err != nil {
			return result, err
		}
		result.Fetched++
		log.Printf("Fetched description for: %s", ch.Name)
	}

	log.Printf("Description fetch complete: %d fetched, %d failed, %d skipped",
		result.Fetched, result.Failed, result.Skipped)
	return result, nil
}

// fetchDescription returns an error only for HTTP error statuses; network
// and extraction failures yield an empty description.
func (f *DescriptionFetcher) fetchDescription(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "shortsradar/1.0 (channel trends)")
	req.Header.Set("Accept-Language", "en")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	parsedURL, _ := url.Parse(pageURL)
	page, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(page.Excerpt)
	if text == "" {
		text = strings.TrimSpace(page.TextContent)
	}
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) < minDescriptionRunes {
		return "", nil
	}
	return truncate(text, MaxDescriptionRunes), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
