package scoring

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/utils"
)

var (
	//go:embed required_skills.md
	requiredSkillsPrompt string
	//go:embed overall_fit.md
	overallFitPrompt string
)

const maxPromptDescription = 1000

// Assessor supplies the judgements that need a language model.
type Assessor interface {
	RequiredSkills(ctx context.Context, job *jobs.Posting) ([]string, error)
	OverallFit(ctx context.Context, p *profile.Snapshot, job *jobs.Posting) (float64, string, error)
}

// LLMAssessor asks a model for required skills and overall fit.
type LLMAssessor struct {
	llm *ai.Structured
}

func NewLLMAssessor(llm *ai.Structured) *LLMAssessor {
	return &LLMAssessor{llm: llm}
}

func (a *LLMAssessor) RequiredSkills(ctx context.Context, job *jobs.Posting) ([]string, error) {
	prompt := ai.Fill(requiredSkillsPrompt, map[string]string{
		"TITLE":       job.Title,
		"COMPANY":     job.Company,
		"DESCRIPTION": utils.Truncate(job.Description, maxPromptDescription),
	})

	var out struct {
		Skills []string `mapstructure:"required_skills"`
	}
	if _, err := a.llm.Generate(ctx, "required skills", prompt, &out); err != nil {
		return nil, err
	}
	return profile.NormalizeSet(out.Skills), nil
}

func (a *LLMAssessor) OverallFit(ctx context.Context, p *profile.Snapshot, job *jobs.Posting) (float64, string, error) {
	prompt := ai.Fill(overallFitPrompt, map[string]string{
		"SKILLS":       strings.Join(p.Skills, ", "),
		"EXPERTISE":    strings.Join(p.AreasOfExpertise, ", "),
		"YEARS":        strconv.FormatFloat(p.ExperienceYears, 'f', -1, 64),
		"LEVEL":        string(p.ExperienceLevel),
		"CURRENT_ROLE": p.CurrentRole,
		"TITLE":        job.Title,
		"COMPANY":      job.Company,
		"LOCATION":     job.Location,
		"DESCRIPTION":  utils.Truncate(job.Description, maxPromptDescription),
	})

	var out struct {
		Fit       any    `mapstructure:"overall_fit"`
		Reasoning string `mapstructure:"reasoning"`
	}
	if _, err := a.llm.Generate(ctx, "overall fit", prompt, &out); err != nil {
		return 0, "", err
	}
	// models answer with 7, "7" or "7/10" alike
	fit := ai.CoerceFloat(out.Fit)
	if math.IsNaN(fit) {
		return 0, "", errors.New("overall fit missing from model response")
	}
	return fit, strings.TrimSpace(out.Reasoning), nil
}
