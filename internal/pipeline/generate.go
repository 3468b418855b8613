package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/logger"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/store"

	"go.uber.org/zap"
)

// GenerateCandidates returns postings at or above the notification threshold
// that have no materials yet.
func (p *Pipeline) GenerateCandidates(ctx context.Context) (*jobs.Postings, error) {
	high, err := p.Store.List(ctx, store.Filter{MinScore: store.MinScore(p.cfg.NotificationThreshold)})
	if err != nil {
		return nil, fmt.Errorf("list high scoring jobs: %w", err)
	}
	high.ExcludeFunc(func(job *jobs.Posting) bool {
		return job.Materials != nil
	})
	return high, nil
}

// Generate writes application materials for the job with jobID, or for
// every candidate when jobID is empty.
func (p *Pipeline) Generate(ctx context.Context, snap *profile.Snapshot, jobID string) (*Report, error) {
	if err := required("materials generator", p.Materials); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New("resume profile is required")
	}

	var targets []*jobs.Posting
	if jobID != "" {
		job, err := p.Store.Get(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("get job %s: %w", jobID, err)
		}
		targets = append(targets, job)
	} else {
		candidates, err := p.GenerateCandidates(ctx)
		if err != nil {
			return nil, err
		}
		targets = candidates.Items
	}
	p.Logger.Info("jobs to generate materials for", zap.Int("count", len(targets)))

	report := p.newReport(StageGenerate)
	for i, job := range targets {
		if err := ctx.Err(); err != nil {
			return p.finish(report), err
		}

		m, err := p.Materials.Generate(ctx, snap, job)
		if err != nil {
			if ctx.Err() != nil {
				return p.finish(report), ctx.Err()
			}
			p.fail(report, fmt.Errorf("generate materials for %s: %w", job.ID, err))
			if ai.IsUnavailable(err) {
				remaining := len(targets) - i - 1
				p.Logger.Warn("language model is unavailable, skipping the remaining jobs",
					zap.Int("skipped", remaining),
					zap.Error(err),
				)
				p.skip(report, remaining)
				break
			}
			continue
		}

		job.Materials = m
		job.Advance(jobs.StatusMaterialsGenerated)
		if err := p.save(ctx, job); err != nil {
			p.fail(report, err)
			continue
		}
		p.succeed(report)
		p.Logger.Info("materials ready", append(logger.JobFields(job),
			zap.String("cover_letter", m.CoverLetterPath),
			zap.String("highlights", m.HighlightsPath),
		)...)
	}
	return p.finish(report), nil
}
