package scoring

// Label is the trend category of a channel.
type Label string

const (
	LabelViral   Label = "viral"
	LabelRising  Label = "rising"
	LabelSteady  Label = "steady"
	LabelDormant Label = "dormant"
)

// Labels lists every label from strongest to weakest.
var Labels = []Label{LabelViral, LabelRising, LabelSteady, LabelDormant}

const (
	viralLabelVideos    = 3
	viralLabelTrend     = 7.5
	risingLabelVideos   = 1
	risingLabelVelocity = 0.002
	steadyLabelTrend    = 3.0
)

// LabelFor maps the scoring signals to exactly one label. A nil velocity
// never qualifies a channel as rising on its own.
func LabelFor(trend float64, viral int, velocity *float64) Label {
	switch {
	case viral >= viralLabelVideos || trend >= viralLabelTrend:
		return LabelViral
	case viral >= risingLabelVideos || (velocity != nil && *velocity >= risingLabelVelocity):
		return LabelRising
	case trend >= steadyLabelTrend:
		return LabelSteady
	default:
		return LabelDormant
	}
}
