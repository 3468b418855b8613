package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/job-assistant/internal/filtering"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/mail"
	"github.com/spigell/job-assistant/internal/metrics"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/store"

	"go.uber.org/zap"
)

// Stage names used in reports and metrics.
const (
	StageCheck    = "check"
	StageScore    = "score"
	StageResearch = "research"
	StageGenerate = "generate"
)

// Mailbox lists alert emails and marks them handled.
type Mailbox interface {
	UnreadAlerts(ctx context.Context, max int) ([]mail.Message, error)
	MarkRead(ctx context.Context, id string) error
}

type Extractor interface {
	Extract(ctx context.Context, msg mail.Message) ([]*jobs.Posting, error)
}

type Scorer interface {
	Score(ctx context.Context, p *profile.Snapshot, job *jobs.Posting, locationPref string) (*jobs.ScoreBreakdown, error)
}

type Researcher interface {
	Research(ctx context.Context, company string) (*jobs.CompanyResearch, error)
}

type MaterialsGenerator interface {
	Generate(ctx context.Context, p *profile.Snapshot, job *jobs.Posting) (*jobs.Materials, error)
}

// Config tunes batch behaviour.
type Config struct {
	MaxEmails             int
	Location              string
	ResearchThreshold     float64
	NotificationThreshold float64
	Filters               filtering.Config
}

// Deps are the collaborators of the pipeline. Only the ones needed by the
// operations being called have to be set.
type Deps struct {
	Store      store.Store
	Mailbox    Mailbox
	Extractor  Extractor
	Scorer     Scorer
	Researcher Researcher
	Materials  MaterialsGenerator
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
}

// Pipeline runs the batch operations behind every CLI verb.
type Pipeline struct {
	Deps
	cfg     Config
	filters []filtering.Filter
	now     func() time.Time
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	filters := filtering.Default()
	if err := filtering.Validate(&cfg.Filters, filters); err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	return &Pipeline{
		Deps:    deps,
		cfg:     cfg,
		filters: filters,
		now:     time.Now,
	}, nil
}

// Report summarizes a batch. A failed item never aborts the batch.
type Report struct {
	Stage     string
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
	Errors    []error
}

// Err joins the item errors.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

func (p *Pipeline) newReport(stage string) *Report {
	return &Report{Stage: stage}
}

func (p *Pipeline) succeed(r *Report) {
	r.Processed++
	r.Succeeded++
	p.Metrics.Processed(r.Stage, metrics.ResultSucceeded)
}

func (p *Pipeline) skip(r *Report, n int) {
	if n <= 0 {
		return
	}
	r.Processed += n
	r.Skipped += n
	for i := 0; i < n; i++ {
		p.Metrics.Processed(r.Stage, metrics.ResultSkipped)
	}
}

func (p *Pipeline) fail(r *Report, err error) {
	r.Processed++
	r.Failed++
	r.Errors = append(r.Errors, err)
	p.Metrics.Processed(r.Stage, metrics.ResultFailed)
}

func (p *Pipeline) finish(r *Report) *Report {
	p.Metrics.Finished(r.Stage, p.now())
	p.Logger.Info("batch finished",
		zap.String("stage", r.Stage),
		zap.Int("processed", r.Processed),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("skipped", r.Skipped),
		zap.Int("failed", r.Failed),
	)
	return r
}

func (p *Pipeline) save(ctx context.Context, job *jobs.Posting) error {
	job.UpdatedAt = p.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	if err := p.Store.Put(ctx, job); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func required(name string, dep any) error {
	if dep == nil {
		return fmt.Errorf("%s is not configured", name)
	}
	return nil
}
