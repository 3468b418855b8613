package materials

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/utils"

	"go.uber.org/zap"
)

var (
	//go:embed cover_letter.md
	coverLetterPrompt string
	//go:embed highlights.md
	highlightsPrompt string
)

// ErrNotScored is returned for postings that have not been scored yet.
var ErrNotScored = errors.New("job is not scored")

const (
	DefaultCoverLettersDir = "data/cover_letters"
	DefaultHighlightsDir   = "data/resume_highlights"

	maxLetterDescription    = 800
	maxHighlightDescription = 1000
	maxProjects             = 3
	filePerm                = 0o644
)

// Generator writes a cover letter and resume highlights for a posting.
type Generator struct {
	llm             *ai.Structured
	coverLettersDir string
	highlightsDir   string
	logger          *zap.Logger
	now             func() time.Time
}

func New(llm *ai.Structured, coverLettersDir, highlightsDir string, logger *zap.Logger) *Generator {
	if coverLettersDir == "" {
		coverLettersDir = DefaultCoverLettersDir
	}
	if highlightsDir == "" {
		highlightsDir = DefaultHighlightsDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		llm:             llm,
		coverLettersDir: coverLettersDir,
		highlightsDir:   highlightsDir,
		logger:          logger,
		now:             time.Now,
	}
}

// Generate asks the model for both documents and writes them as files named
// by job id. Nothing is written unless both documents were generated.
func (g *Generator) Generate(ctx context.Context, p *profile.Snapshot, job *jobs.Posting) (*jobs.Materials, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if job.Score == nil {
		return nil, fmt.Errorf("%s: %w", job.ID, ErrNotScored)
	}
	if p == nil {
		return nil, errors.New("resume profile is required")
	}

	letter, err := g.llm.Text(ctx, "cover letter", g.coverLetterPrompt(p, job))
	if err != nil {
		return nil, fmt.Errorf("generate cover letter: %w", err)
	}
	highlights, err := g.llm.Text(ctx, "resume highlights", g.highlightsPrompt(p, job))
	if err != nil {
		return nil, fmt.Errorf("generate highlights: %w", err)
	}

	m := &jobs.Materials{
		CoverLetterPath: filepath.Join(g.coverLettersDir, job.ID+"_cover_letter.txt"),
		HighlightsPath:  filepath.Join(g.highlightsDir, job.ID+"_highlights.txt"),
		GeneratedAt:     g.now().UTC(),
	}
	if err := utils.WriteFileAtomic(m.CoverLetterPath, []byte(letter+"\n"), filePerm); err != nil {
		return nil, fmt.Errorf("save cover letter: %w", err)
	}
	if err := utils.WriteFileAtomic(m.HighlightsPath, []byte(highlights+"\n"), filePerm); err != nil {
		return nil, fmt.Errorf("save highlights: %w", err)
	}

	g.logger.Info("materials generated",
		zap.String("job_id", job.ID),
		zap.String("cover_letter", m.CoverLetterPath),
		zap.String("highlights", m.HighlightsPath),
	)
	return m, nil
}

func (g *Generator) coverLetterPrompt(p *profile.Snapshot, job *jobs.Posting) string {
	return ai.Fill(coverLetterPrompt, map[string]string{
		"TITLE":        job.Title,
		"COMPANY":      job.Company,
		"LOCATION":     job.Location,
		"DESCRIPTION":  utils.Truncate(job.Description, maxLetterDescription),
		"COMPANY_INFO": companyInfo(job.Research),
		"CURRENT_ROLE": p.CurrentRole,
		"SKILLS":       strings.Join(p.Skills, ", "),
		"PROJECTS":     projectLines(p.Projects),
	})
}

func (g *Generator) highlightsPrompt(p *profile.Snapshot, job *jobs.Posting) string {
	return ai.Fill(highlightsPrompt, map[string]string{
		"TITLE":          job.Title,
		"COMPANY":        job.Company,
		"DESCRIPTION":    utils.Truncate(job.Description, maxHighlightDescription),
		"SKILLS":         strings.Join(p.Skills, ", "),
		"MATCHED_SKILLS": strings.Join(job.Score.MatchedSkills, ", "),
		"PROJECTS":       projectLines(p.Projects),
		"ROLES":          roleLines(p),
	})
}

func companyInfo(r *jobs.CompanyResearch) string {
	if r == nil || r.Error != "" {
		return ""
	}
	return fmt.Sprintf("\nCOMPANY INFORMATION:\n- Summary: %s\n- Tech Stack: %s\n- Values: %s\n- Culture: %s\n",
		r.Summary,
		strings.Join(r.TechStack, ", "),
		strings.Join(r.Values, ", "),
		r.Culture,
	)
}

func projectLines(projects []profile.Project) string {
	if len(projects) > maxProjects {
		projects = projects[:maxProjects]
	}
	if len(projects) == 0 {
		return "- none listed"
	}
	lines := make([]string, 0, len(projects))
	for _, pr := range projects {
		lines = append(lines, fmt.Sprintf("- %s: %s (Technologies: %s)", pr.Name, pr.Description, strings.Join(pr.Technologies, ", ")))
	}
	return strings.Join(lines, "\n")
}

func roleLines(p *profile.Snapshot) string {
	lines := make([]string, 0, len(p.PreviousRoles)+1)
	if p.CurrentRole != "" {
		lines = append(lines, "- "+p.CurrentRole+" (current)")
	}
	for _, r := range p.PreviousRoles {
		lines = append(lines, fmt.Sprintf("- %s at %s (%s)", r.Title, r.Company, r.Duration))
	}
	if len(lines) == 0 {
		return "- none listed"
	}
	return strings.Join(lines, "\n")
}
