package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/logger"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/store"

	"go.uber.org/zap"
)

// Score scores postings still in status new, or every posting when rescore
// is set, and stores the breakdowns.
func (p *Pipeline) Score(ctx context.Context, snap *profile.Snapshot, rescore bool) (*Report, error) {
	if err := required("scorer", p.Scorer); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New("resume profile is required")
	}

	filter := store.Filter{}
	if !rescore {
		filter.Status = store.WithStatus(jobs.StatusNew)
	}
	pending, err := p.Store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs to score: %w", err)
	}
	p.Logger.Info("jobs to score", zap.Int("count", pending.Len()), zap.Bool("rescore", rescore), zap.Int("profile_version", snap.Version))

	report := p.newReport(StageScore)
	for _, job := range pending.Items {
		if err := ctx.Err(); err != nil {
			return p.finish(report), err
		}

		b, err := p.Scorer.Score(ctx, snap, job, p.cfg.Location)
		if err != nil {
			if ctx.Err() != nil {
				return p.finish(report), ctx.Err()
			}
			p.fail(report, fmt.Errorf("score job %s: %w", job.ID, err))
			continue
		}

		job.Score = b
		if len(job.RequiredSkills) == 0 {
			job.RequiredSkills = append(append([]string{}, b.MatchedSkills...), b.MissingSkills...)
		}
		job.Advance(jobs.StatusScored)
		if err := p.save(ctx, job); err != nil {
			p.fail(report, err)
			continue
		}
		p.succeed(report)
		p.Metrics.ObserveScore(b.Total)

		fields := append(logger.JobFields(job), zap.Float64("score", b.Total))
		switch {
		case b.NeedsReview:
			p.Logger.Warn("scored job needs review", append(fields, zap.Strings("reasons", b.ReviewReasons))...)
		case b.Total >= p.cfg.NotificationThreshold:
			p.Logger.Info("high scoring job", append(fields, zap.String("url", job.URL))...)
		default:
			p.Logger.Info("scored job", fields...)
		}
	}
	return p.finish(report), nil
}

// Review lists stored postings in review order. With minScore set only
// postings scoring at least that much are returned.
func (p *Pipeline) Review(ctx context.Context, filter store.Filter) (*jobs.Postings, error) {
	postings, err := p.Store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return postings, nil
}
