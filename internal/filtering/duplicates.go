package filtering

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/store"
)

const NameDuplicates = "duplicates"

type duplicatesFilter struct {
	toggle
	// seen keeps postings that passed earlier Apply calls of the same run.
	seen []*jobs.Posting
}

// NewDuplicates creates a filter that removes postings already stored or
// already seen during this run. It keeps state between Apply calls.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return NameDuplicates }

func (f *duplicatesFilter) Validate(*Config) error { return nil }

func (f *duplicatesFilter) Apply(ctx context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	var lookupErr error
	excluded := p.ExcludeFunc(func(posting *jobs.Posting) bool {
		if lookupErr != nil {
			return false
		}
		if jobs.IsDuplicate(posting, f.seen) {
			return true
		}
		if deps.Store != nil {
			_, err := deps.Store.Get(ctx, posting.ID)
			switch {
			case err == nil:
				return true
			case !errors.Is(err, store.ErrNotFound):
				lookupErr = fmt.Errorf("lookup %s: %w", posting.ID, err)
				return false
			}
		}
		f.seen = append(f.seen, posting)
		return false
	})
	if lookupErr != nil {
		return p, Step{}, lookupErr
	}

	return p, step(initial, excluded, p), nil
}

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
