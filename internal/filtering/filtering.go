package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/job-assistant/internal/jobs"

	"go.uber.org/zap"
)

// Filter represents a single filtering step applied to freshly extracted postings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error)
}

// Lookup finds stored postings by id.
type Lookup interface {
	Get(ctx context.Context, id string) (*jobs.Posting, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	Store  Lookup
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial  int
	Dropped  int
	Left     int
	Excluded []string
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	RedFlags         []string `mapstructure:"red-flags"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Dropped maps excluded posting ids to the step that dropped them.
type Dropped map[string]string

// Default returns the steps used by check in their execution order.
func Default() []Filter {
	return []Filter{
		NewDuplicates(),
		NewCompanies(),
		NewRedFlags(),
	}
}

// Validate prepares every enabled step.
func Validate(cfg *Config, steps []Filter) error {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// Run executes the supplied filters sequentially and returns what is left
// together with the ids each step dropped. Steps must be validated first.
func Run(ctx context.Context, deps Deps, steps []Filter, p *jobs.Postings) (*jobs.Postings, Dropped, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dropped := make(Dropped)
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, p)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if info.Dropped > 0 {
			logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
				zap.Strings("excluded_jobs", info.Excluded),
			)
		}
		for _, id := range info.Excluded {
			dropped[id] = step.Name()
		}

		p = next
	}

	return p, dropped, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func step(initial int, excluded []string, p *jobs.Postings) Step {
	return Step{Initial: initial, Dropped: len(excluded), Left: p.Len(), Excluded: excluded}
}
