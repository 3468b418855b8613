package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"

	"go.uber.org/zap"
)

// Scorer computes the weighted score of a posting against a resume profile.
type Scorer struct {
	assessor Assessor
	logger   *zap.Logger
	now      func() time.Time
}

func NewScorer(assessor Assessor, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{assessor: assessor, logger: logger, now: time.Now}
}

// Score returns the normalized breakdown for job. Assessor failures zero the
// affected sub-score and flag the breakdown for review instead of failing.
// Only a cancelled context or missing input is returned as an error.
func (s *Scorer) Score(ctx context.Context, p *profile.Snapshot, job *jobs.Posting, locationPref string) (*jobs.ScoreBreakdown, error) {
	if p == nil {
		return nil, errors.New("resume profile is required")
	}
	if job == nil {
		return nil, errors.New("job is required")
	}

	b := &jobs.ScoreBreakdown{
		ProfileVersion: p.Version,
		ScoredAt:       s.now().UTC(),
	}
	if p.Unparsed {
		b.Flag("resume profile could not be parsed")
	}

	required := job.RequiredSkills
	assessed := true
	if len(required) == 0 {
		skills, err := s.assessor.RequiredSkills(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("required skills assessment failed", zap.String("job_id", job.ID), zap.Error(err))
			b.Flag(fmt.Sprintf("required skills unavailable: %v", err))
			assessed = false
		}
		required = skills
	}

	if score, matched, missing, ok := SkillsMatch(required, p.Skills); ok {
		b.SkillsMatch = score
		b.MatchedSkills = matched
		b.MissingSkills = missing
	} else if assessed {
		b.SkillsMatch = jobs.MaxSkillsMatch / 2
		b.Flag("no required skills found")
	}

	b.ExperienceMatch = ExperienceMatch(p.ExperienceLevel, job)

	prefScore, _ := PreferencesMatch(p.Preferences, job)
	b.PreferencesMatch = prefScore
	b.LocationMatch = LocationMatch(locationPref, job)

	fit, reasoning, err := s.assessor.OverallFit(ctx, p, job)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("overall fit assessment failed", zap.String("job_id", job.ID), zap.Error(err))
		b.Flag(fmt.Sprintf("overall fit unavailable: %v", err))
		fit = 0
	}
	b.OverallFit = fit
	b.Reasoning = reasoning
	if b.Reasoning == "" {
		b.Reasoning = fmt.Sprintf("%d of %d required skills matched", len(b.MatchedSkills), len(b.MatchedSkills)+len(b.MissingSkills))
	}

	b.Normalize()
	return b, nil
}
