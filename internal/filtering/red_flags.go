package filtering

import (
	"context"
	"strconv"
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"
)

const NameRedFlags = "red_flags"

type redFlagsFilter struct {
	toggle
	flags []string
}

// NewRedFlags creates a filter that removes postings mentioning any configured red flag term.
func NewRedFlags() Filter {
	return &redFlagsFilter{}
}

func (f *redFlagsFilter) Name() string { return NameRedFlags }

func (f *redFlagsFilter) Validate(cfg *Config) error {
	f.flags = nil
	if cfg == nil {
		return nil
	}
	for _, flag := range cfg.RedFlags {
		if flag = strings.TrimSpace(flag); flag != "" {
			f.flags = append(f.flags, flag)
		}
	}
	return nil
}

func (f *redFlagsFilter) Apply(_ context.Context, _ Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.flags) == 0 {
		return p, step(initial, nil, p), nil
	}

	excluded := p.ExcludeFunc(func(posting *jobs.Posting) bool {
		return ContainsRedFlag(posting.Title, posting.Company, posting.Description, f.flags)
	})
	return p, step(initial, excluded, p), nil
}

func (f *redFlagsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"terms": strconv.Itoa(len(f.flags))},
	}
}

// ContainsRedFlag reports whether any term appears, case-insensitively, in
// the title, company or description.
func ContainsRedFlag(title, company, description string, redFlags []string) bool {
	haystack := strings.ToLower(title + " " + company + " " + description)
	for _, flag := range redFlags {
		if flag = strings.ToLower(strings.TrimSpace(flag)); flag != "" && strings.Contains(haystack, flag) {
			return true
		}
	}
	return false
}
