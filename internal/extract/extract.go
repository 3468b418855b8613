package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/mail"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const maxPromptBody = 2000

var errNoJobs = errors.New(`model response has neither "jobs" nor a job object`)

// Extractor turns alert emails into postings.
type Extractor struct {
	llm    *ai.Structured
	logger *zap.Logger
	now    func() time.Time
}

func New(llm *ai.Structured, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{llm: llm, logger: logger, now: time.Now}
}

type item struct {
	Title          string   `mapstructure:"title"`
	Company        string   `mapstructure:"company"`
	Location       string   `mapstructure:"location"`
	Description    string   `mapstructure:"description"`
	URL            string   `mapstructure:"url"`
	Source         string   `mapstructure:"source"`
	Salary         string   `mapstructure:"salary"`
	EmploymentType string   `mapstructure:"employment_type"`
	RequiredSkills []string `mapstructure:"required_skills"`
	Seniority      string   `mapstructure:"seniority"`
	WorkMode       string   `mapstructure:"work_mode"`
	Industry       string   `mapstructure:"industry"`
	CompanySize    string   `mapstructure:"company_size"`
}

type envelope struct {
	Jobs []item `mapstructure:"jobs"`
}

// Extract returns the postings found in msg. An empty slice means the email
// holds no postings. When the model fails, a single low confidence posting
// built from the email itself is returned instead of an error.
func (e *Extractor) Extract(ctx context.Context, msg mail.Message) ([]*jobs.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := ai.Fill(promptTemplate, map[string]string{
		"SUBJECT": msg.Subject,
		"FROM":    msg.From,
		"BODY":    utils.Truncate(msg.Body, maxPromptBody),
	})

	items, err := e.generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("extraction failed, using email fallback",
			zap.String("message_id", msg.ID),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		p := e.posting(msg, item{})
		p.LowConfidence = true
		p.ExtractionError = err.Error()
		return []*jobs.Posting{p}, nil
	}

	postings := make([]*jobs.Posting, 0, len(items))
	for _, it := range items {
		postings = append(postings, e.posting(msg, it))
	}
	return postings, nil
}

func (e *Extractor) generate(ctx context.Context, prompt string) ([]item, error) {
	var raw map[string]any
	if _, err := e.llm.Generate(ctx, "job extraction", prompt, &raw); err != nil {
		return nil, err
	}

	if _, ok := raw["jobs"]; ok {
		var env envelope
		if err := ai.DecodeMap(raw, &env); err != nil {
			return nil, fmt.Errorf("decode jobs: %w", err)
		}
		return env.Jobs, nil
	}

	// Some models answer with a single posting object.
	if _, ok := raw["title"]; ok {
		var it item
		if err := ai.DecodeMap(raw, &it); err != nil {
			return nil, fmt.Errorf("decode job: %w", err)
		}
		return []item{it}, nil
	}
	return nil, errNoJobs
}

func (e *Extractor) posting(msg mail.Message, it item) *jobs.Posting {
	now := e.now().UTC()
	received := msg.ReceivedAt
	if received.IsZero() {
		received = now
	}

	p := &jobs.Posting{
		Title:          orDefault(it.Title, TitleFromSubject(msg.Subject)),
		Company:        orDefault(it.Company, unknown),
		Location:       orDefault(it.Location, unknown),
		Description:    orDefault(it.Description, descriptionFromBody(msg.Body)),
		URL:            orDefault(it.URL, URLFromBody(msg.Body)),
		Source:         orDefault(it.Source, SourceFromSender(msg.From)),
		ReceivedAt:     received,
		MessageID:      msg.ID,
		RequiredSkills: profile.NormalizeSet(it.RequiredSkills),
		Seniority:      strings.ToLower(strings.TrimSpace(it.Seniority)),
		WorkMode:       strings.ToLower(strings.TrimSpace(it.WorkMode)),
		Industry:       strings.TrimSpace(it.Industry),
		CompanySize:    strings.TrimSpace(it.CompanySize),
		EmploymentType: strings.TrimSpace(it.EmploymentType),
		Salary:         strings.TrimSpace(it.Salary),
		Status:         jobs.StatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Title == "" {
		p.Title = unknown
	}
	p.AssignID()
	return p
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
