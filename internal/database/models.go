package database

// Channel is the latest collected metadata of a channel.
type Channel struct {
	ChannelID          string
	Name               string
	Description        string
	DescriptionFetched bool
	Keywords           string
	CreatedAt          *string

	// SubscriberCount is nil when the platform hides it or the source
	// carries none.
	SubscriberCount *int64
	ViewCount       int64
	VideoCount      int64
	UpdatedAt       *string
}

// Video is a collected upload.
type Video struct {
	VideoID         string
	ChannelID       string
	Title           string
	PublishedAt     string
	DurationSeconds int64
	ViewCount       int64
	LikeCount       int64
	FetchedAt       *string
}

// StatsPoint is one daily reading of a channel's totals.
type StatsPoint struct {
	ChannelID       string
	Day             string
	SubscriberCount int64
	ViewCount       int64
	VideoCount      int64
}

// RunReport records the outcome counts of one scoring run.
type RunReport struct {
	RunID         string
	EvaluatedAt   string
	ChannelCount  int
	RejectedCount int
	EligibleCount int
	CreatedAt     *string
}

// Stats holds aggregate database statistics.
type Stats struct {
	Channels          int
	ChannelsWithStats int
	Videos            int
	StatsDays         int
	RunReports        int
}
