package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	DefaultMaxURLs    = 5
	NoInformation     = "No information found"
	maxPromptSources  = 5000
	maxRecentNews     = 3
	searchQueryFormat = "%s company culture technology stack"
)

// Researcher gathers public information about employers.
type Researcher struct {
	search  Searcher
	fetch   PageFetcher
	cache   Cache
	llm     *ai.Structured
	logger  *zap.Logger
	maxURLs int
	now     func() time.Time
}

func New(search Searcher, fetch PageFetcher, cache Cache, llm *ai.Structured, maxURLs int, logger *zap.Logger) *Researcher {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxURLs <= 0 {
		maxURLs = DefaultMaxURLs
	}
	return &Researcher{
		search:  search,
		fetch:   fetch,
		cache:   cache,
		llm:     llm,
		logger:  logger,
		maxURLs: maxURLs,
		now:     time.Now,
	}
}

type source struct {
	url   string
	title string
	text  string
}

type summary struct {
	Company      string   `mapstructure:"company"`
	Summary      string   `mapstructure:"summary"`
	TechStack    []string `mapstructure:"tech_stack"`
	Values       []string `mapstructure:"values"`
	RecentNews   []string `mapstructure:"recent_news"`
	Culture      string   `mapstructure:"culture"`
	Size         string   `mapstructure:"size"`
	Industry     string   `mapstructure:"industry"`
	FundingStage string   `mapstructure:"funding_stage"`
}

// Research returns what could be learned about company. A model failure is
// reported in the Error field of the returned record, not as an error.
func (r *Researcher) Research(ctx context.Context, company string) (*jobs.CompanyResearch, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, errors.New("company name is required")
	}
	logger := r.logger.With(zap.String("company", company))

	if cached, ok, err := r.cache.Get(ctx, company); err != nil {
		logger.Warn("research cache lookup failed", zap.Error(err))
	} else if ok {
		logger.Debug("research cache hit")
		return cached, nil
	}

	sources := r.gather(ctx, company, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &jobs.CompanyResearch{
		Company:      company,
		ResearchedAt: r.now().UTC(),
	}
	for _, s := range sources {
		result.Sources = append(result.Sources, s.url)
	}

	if len(sources) == 0 {
		logger.Info("no sources found for company")
		fillMissing(result)
		return result, nil
	}

	prompt := ai.Fill(promptTemplate, map[string]string{
		"COMPANY": company,
		"SOURCES": utils.Truncate(renderSources(sources), maxPromptSources),
	})

	var out summary
	if _, err := r.llm.Generate(ctx, "company research", prompt, &out); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("company research failed", zap.Error(err))
		result.Summary = fmt.Sprintf("Research failed: %v", err)
		result.Error = err.Error()
		fillMissing(result)
		return result, nil
	}

	result.Summary = strings.TrimSpace(out.Summary)
	result.TechStack = out.TechStack
	result.Values = out.Values
	result.RecentNews = out.RecentNews
	if len(result.RecentNews) > maxRecentNews {
		result.RecentNews = result.RecentNews[:maxRecentNews]
	}
	result.Culture = strings.TrimSpace(out.Culture)
	result.Size = strings.TrimSpace(out.Size)
	result.Industry = strings.TrimSpace(out.Industry)
	result.FundingStage = strings.TrimSpace(out.FundingStage)
	fillMissing(result)

	if err := r.cache.Set(ctx, result); err != nil {
		logger.Warn("caching research failed", zap.Error(err))
	}
	return result, nil
}

func (r *Researcher) gather(ctx context.Context, company string, logger *zap.Logger) []source {
	results, err := r.search.Search(ctx, fmt.Sprintf(searchQueryFormat, company), r.maxURLs)
	if err != nil {
		logger.Warn("company search failed", zap.Error(err))
		return nil
	}

	var sources []source
	for _, res := range results {
		if len(sources) >= r.maxURLs || ctx.Err() != nil {
			break
		}
		text, err := r.fetch.Fetch(ctx, res.URL)
		if err != nil {
			logger.Debug("skipping source", zap.String("url", res.URL), zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}
		sources = append(sources, source{url: res.URL, title: res.Title, text: text})
	}
	return sources
}

func renderSources(sources []source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, fmt.Sprintf("URL: %s\nTitle: %s\nContent: %s", s.url, s.title, s.text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func fillMissing(r *jobs.CompanyResearch) {
	for _, field := range []*string{&r.Summary, &r.Culture, &r.Size, &r.Industry, &r.FundingStage} {
		if strings.TrimSpace(*field) == "" {
			*field = NoInformation
		}
	}
	for _, list := range []*[]string{&r.TechStack, &r.Values, &r.RecentNews, &r.Sources} {
		if *list == nil {
			*list = []string{}
		}
	}
}
