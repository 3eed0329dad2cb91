package scoring

import "fmt"

// Policy holds the constants every evaluation is computed against. Two
// evaluations of the same snapshot under equal policies are identical.
type Policy struct {
	ViralViewThreshold       int64   `yaml:"viral_view_threshold"`
	ViralWindowDays          float64 `yaml:"viral_window_days"`
	MaxRecentVideos          int     `yaml:"max_recent_videos"`
	GrowthWindowDays         int     `yaml:"growth_window_days"`
	HitViewThreshold         int64   `yaml:"hit_view_threshold"`
	ViralSaturation          int     `yaml:"viral_saturation"`
	GrowthVelocitySaturation float64 `yaml:"growth_velocity_saturation"`
	MinEligibleViralVideos   int     `yaml:"min_eligible_viral_videos"`
	MaxKeywords              int     `yaml:"max_keywords"`
}

// DefaultPolicy is the canonical policy: 1M views within 90 days over the
// 10 most recent uploads.
func DefaultPolicy() Policy {
	return Policy{
		ViralViewThreshold:       1_000_000,
		ViralWindowDays:          90,
		MaxRecentVideos:          10,
		GrowthWindowDays:         14,
		HitViewThreshold:         100_000,
		ViralSaturation:          5,
		GrowthVelocitySaturation: 0.01,
		MinEligibleViralVideos:   1,
		MaxKeywords:              5,
	}
}

// WithDefaults returns p with every unset field taken from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.ViralViewThreshold <= 0 {
		p.ViralViewThreshold = d.ViralViewThreshold
	}
	if p.ViralWindowDays <= 0 {
		p.ViralWindowDays = d.ViralWindowDays
	}
	if p.MaxRecentVideos <= 0 {
		p.MaxRecentVideos = d.MaxRecentVideos
	}
	if p.GrowthWindowDays <= 0 {
		p.GrowthWindowDays = d.GrowthWindowDays
	}
	if p.HitViewThreshold <= 0 {
		p.HitViewThreshold = d.HitViewThreshold
	}
	if p.ViralSaturation <= 0 {
		p.ViralSaturation = d.ViralSaturation
	}
	if p.GrowthVelocitySaturation <= 0 {
		p.GrowthVelocitySaturation = d.GrowthVelocitySaturation
	}
	if p.MinEligibleViralVideos < 0 {
		p.MinEligibleViralVideos = 0
	}
	if p.MaxKeywords <= 0 {
		p.MaxKeywords = d.MaxKeywords
	}
	return p
}

// Validate rejects policies that cannot produce bounded scores.
func (p Policy) Validate() error {
	switch {
	case p.ViralViewThreshold <= 0:
		return fmt.Errorf("viral_view_threshold must be positive, got %d", p.ViralViewThreshold)
	case p.ViralWindowDays <= 0:
		return fmt.Errorf("viral_window_days must be positive, got %g", p.ViralWindowDays)
	case p.MaxRecentVideos <= 0:
		return fmt.Errorf("max_recent_videos must be positive, got %d", p.MaxRecentVideos)
	case p.GrowthWindowDays <= 0:
		return fmt.Errorf("growth_window_days must be positive, got %d", p.GrowthWindowDays)
	case p.ViralSaturation <= 0:
		return fmt.Errorf("viral_saturation must be positive, got %d", p.ViralSaturation)
	case p.GrowthVelocitySaturation <= 0:
		return fmt.Errorf("growth_velocity_saturation must be positive, got %g", p.GrowthVelocitySaturation)
	}
	return nil
}
