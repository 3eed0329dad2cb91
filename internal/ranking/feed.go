package ranking

import "fmt"

// Feed status values of the trending endpoint.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusNoResults = "no_results"
)

// DefaultPageSize is used when FeedOptions.Limit is unset.
const DefaultPageSize = 50

// FeedOptions controls eligibility filtering and pagination.
type FeedOptions struct {
	MinViralVideos int
	Offset         int
	Limit          int
}

// Feed is one page of the trending feed.
type Feed struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Channels []RankedChannel `json:"channels"`
	Total    int             `json:"total"`
}

// Assemble keeps the channels with at least opts.MinViralVideos viral
// videos and returns the requested page. ranked must already be ranked.
// Nothing eligible yields StatusNoResults with an empty channel list.
func Assemble(ranked []RankedChannel, opts FeedOptions) Feed {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	eligible := make([]RankedChannel, 0, len(ranked))
	for _, c := range ranked {
		if c.ViralVideoCount >= opts.MinViralVideos {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		return Feed{
			Status:   StatusNoResults,
			Message:  fmt.Sprintf("no channels with at least %d viral videos", opts.MinViralVideos),
			Channels: []RankedChannel{},
		}
	}

	start := min(opts.Offset, len(eligible))
	end := min(start+opts.Limit, len(eligible))
	page := eligible[start:end]

	return Feed{
		Status:   StatusOK,
		Message:  fmt.Sprintf("%d of %d trending channels", len(page), len(eligible)),
		Channels: page,
		Total:    len(eligible),
	}
}

// ErrorFeed is the feed reported when the channels could not be loaded.
func ErrorFeed(err error) Feed {
	return Feed{Status: StatusError, Message: err.Error(), Channels: []RankedChannel{}}
}
