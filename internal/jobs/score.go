package jobs

import (
	"math"
	"time"
)

// Upper bounds of every score band.
const (
	MaxSkillsMatch      = 40.0
	MaxExperienceMatch  = 20.0
	MaxPreferencesMatch = 20.0
	MaxLocationMatch    = 10.0
	MaxOverallFit       = 10.0
	MaxTotal            = 100.0
)

// ScoreBreakdown holds the five weighted sub-scores of a posting.
type ScoreBreakdown struct {
	SkillsMatch      float64 `json:"skills_match"`
	ExperienceMatch  float64 `json:"experience_match"`
	PreferencesMatch float64 `json:"preferences_match"`
	LocationMatch    float64 `json:"location_match"`
	OverallFit       float64 `json:"overall_fit"`
	Total            float64 `json:"total"`

	MatchedSkills  []string  `json:"matched_skills,omitempty"`
	MissingSkills  []string  `json:"missing_skills,omitempty"`
	Reasoning      string    `json:"reasoning,omitempty"`
	NeedsReview    bool      `json:"needs_review,omitempty"`
	ReviewReasons  []string  `json:"review_reasons,omitempty"`
	ProfileVersion int       `json:"profile_version"`
	ScoredAt       time.Time `json:"scored_at"`
}

// Round rounds to one decimal place, halves away from zero.
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}

// Clamp bounds v to [0, upper] and rounds it. NaN becomes 0.
func Clamp(v, upper float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > upper {
		v = upper
	}
	return Round(v)
}

// Normalize clamps every sub-score to its band and recomputes the total.
func (b *ScoreBreakdown) Normalize() {
	b.SkillsMatch = Clamp(b.SkillsMatch, MaxSkillsMatch)
	b.ExperienceMatch = Clamp(b.ExperienceMatch, MaxExperienceMatch)
	b.PreferencesMatch = Clamp(b.PreferencesMatch, MaxPreferencesMatch)
	b.LocationMatch = Clamp(b.LocationMatch, MaxLocationMatch)
	b.OverallFit = Clamp(b.OverallFit, MaxOverallFit)
	b.Total = Clamp(b.sum(), MaxTotal)
}

// Valid reports whether every sub-score is inside its band and the total is their sum.
func (b *ScoreBreakdown) Valid() bool {
	bands := []struct{ v, max float64 }{
		{b.SkillsMatch, MaxSkillsMatch},
		{b.ExperienceMatch, MaxExperienceMatch},
		{b.PreferencesMatch, MaxPreferencesMatch},
		{b.LocationMatch, MaxLocationMatch},
		{b.OverallFit, MaxOverallFit},
	}
	for _, band := range bands {
		if band.v < 0 || band.v > band.max {
			return false
		}
	}
	return b.Total == Round(b.sum())
}

// Flag marks the breakdown for manual review.
func (b *ScoreBreakdown) Flag(reason string) {
	b.NeedsReview = true
	b.ReviewReasons = append(b.ReviewReasons, reason)
}

func (b *ScoreBreakdown) sum() float64 {
	return b.SkillsMatch + b.ExperienceMatch + b.PreferencesMatch + b.LocationMatch + b.OverallFit
}
