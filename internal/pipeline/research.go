package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/store"

	"go.uber.org/zap"
)

// Research researches a single company and attaches the result to every
// stored posting of that company.
func (p *Pipeline) Research(ctx context.Context, company string) (*jobs.CompanyResearch, *Report, error) {
	if err := required("researcher", p.Researcher); err != nil {
		return nil, nil, err
	}

	result, err := p.Researcher.Research(ctx, company)
	if err != nil {
		return nil, nil, fmt.Errorf("research %s: %w", company, err)
	}

	all, err := p.Store.List(ctx, store.Filter{})
	if err != nil {
		return result, nil, fmt.Errorf("list jobs: %w", err)
	}

	report := p.newReport(StageResearch)
	var matching []*jobs.Posting
	for _, job := range all.Items {
		if jobs.SameCompany(job.Company, company) {
			matching = append(matching, job)
		}
	}
	if len(matching) > 0 {
		p.attachResearch(ctx, result, matching, report)
	}
	return result, p.finish(report), nil
}

// ResearchCandidates returns postings at or above the research threshold
// whose company has not been researched successfully yet.
func (p *Pipeline) ResearchCandidates(ctx context.Context) (*jobs.Postings, error) {
	high, err := p.Store.List(ctx, store.Filter{MinScore: store.MinScore(p.cfg.ResearchThreshold)})
	if err != nil {
		return nil, fmt.Errorf("list high scoring jobs: %w", err)
	}
	high.ExcludeFunc(func(job *jobs.Posting) bool {
		return job.Research != nil && job.Research.Error == ""
	})
	return high, nil
}

// ResearchHigh researches each company of the high scoring postings once.
// Items in the report are companies.
func (p *Pipeline) ResearchHigh(ctx context.Context) (*Report, error) {
	if err := required("researcher", p.Researcher); err != nil {
		return nil, err
	}

	candidates, err := p.ResearchCandidates(ctx)
	if err != nil {
		return nil, err
	}
	order, groups := candidates.ByCompany()
	p.Logger.Info("companies to research", zap.Int("count", len(order)), zap.Int("jobs", candidates.Len()))

	report := p.newReport(StageResearch)
	if unnamed := candidates.Len() - countGrouped(groups); unnamed > 0 {
		p.Logger.Info("skipping jobs without a company name", zap.Int("count", unnamed))
		p.skip(report, unnamed)
	}

	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return p.finish(report), err
		}
		group := groups[key]
		company := group[0].Company

		result, err := p.Researcher.Research(ctx, company)
		if err != nil {
			if ctx.Err() != nil {
				return p.finish(report), ctx.Err()
			}
			p.fail(report, fmt.Errorf("research %s: %w", company, err))
			continue
		}
		p.attachResearch(ctx, result, group, report)
	}
	return p.finish(report), nil
}

// attachResearch stores result on postings and counts one report item.
func (p *Pipeline) attachResearch(ctx context.Context, result *jobs.CompanyResearch, postings []*jobs.Posting, report *Report) {
	if result.Error != "" {
		p.fail(report, fmt.Errorf("research %s: %s", result.Company, result.Error))
		return
	}

	var errs []error
	for _, job := range postings {
		job.Research = result
		job.Advance(jobs.StatusResearched)
		if err := p.save(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		p.fail(report, errors.Join(errs...))
		return
	}
	p.succeed(report)
	p.Logger.Info("company researched", zap.String("company", result.Company), zap.Int("jobs", len(postings)))
}

func countGrouped(groups map[string][]*jobs.Posting) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}
