package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"
)

const NameCompanies = "excluded_companies"

type companiesFilter struct {
	toggle
	companies []string
}

// NewCompanies creates a filter that removes postings by companies configured in the config.
func NewCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return NameCompanies }

func (f *companiesFilter) Validate(cfg *Config) error {
	f.companies = nil
	if cfg != nil {
		f.companies = append(f.companies, cfg.ExcludeCompanies...)
	}
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, _ Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.companies) == 0 {
		return p, step(initial, nil, p), nil
	}

	excluded := p.Exclude(jobs.FieldCompany, f.companies)
	return p, step(initial, excluded, p), nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
