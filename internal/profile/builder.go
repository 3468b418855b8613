package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/spigell/job-assistant/internal/ai"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

// TextSource fetches the plain text of a resume document.
type TextSource interface {
	FetchText(ctx context.Context, ref string) (string, error)
}

// Builder turns a resume document into a Snapshot.
type Builder struct {
	source TextSource
	ref    string
	llm    *ai.Structured
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a builder reading the document ref from source.
func NewBuilder(source TextSource, ref string, llm *ai.Structured, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		source: source,
		ref:    strings.TrimSpace(ref),
		llm:    llm,
		logger: logger,
		now:    time.Now,
	}
}

type extraction struct {
	Skills           []string    `mapstructure:"skills"`
	ExperienceYears  float64     `mapstructure:"experience_years"`
	ExperienceLevel  string      `mapstructure:"experience_level"`
	Education        []Education `mapstructure:"education"`
	Projects         []Project   `mapstructure:"notable_projects"`
	AreasOfExpertise []string    `mapstructure:"areas_of_expertise"`
	CurrentRole      string      `mapstructure:"current_role"`
	PreviousRoles    []Role      `mapstructure:"previous_roles"`
}

// Build fetches the document and extracts the profile. A document that cannot
// be fetched or is empty is an error. When the model answer cannot be parsed
// the snapshot is still returned, marked Unparsed.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	if b.ref == "" {
		return nil, errors.New("resume document is not configured")
	}

	text, err := b.source.FetchText(ctx, b.ref)
	if err != nil {
		return nil, fmt.Errorf("fetch resume %s: %w", b.ref, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("resume %s is empty", b.ref)
	}

	snap := &Snapshot{
		Source:          b.ref,
		RawText:         text,
		ExperienceLevel: LevelMid,
		CachedAt:        b.now().UTC(),
	}

	prompt := ai.Fill(promptTemplate, map[string]string{"RESUME_TEXT": text})

	var out extraction
	if _, err := b.llm.Generate(ctx, "resume extraction", prompt, &out); err != nil {
		b.logger.Warn("resume extraction failed, keeping raw text only", zap.Error(err))
		snap.Unparsed = true
		snap.ParseError = err.Error()
		return snap, nil
	}

	snap.Skills = NormalizeSet(out.Skills)
	snap.ExperienceYears = out.ExperienceYears
	if level := ParseLevel(out.ExperienceLevel); level != LevelUnknown {
		snap.ExperienceLevel = level
	}
	snap.Education = out.Education
	snap.Projects = out.Projects
	snap.AreasOfExpertise = NormalizeSet(out.AreasOfExpertise)
	snap.CurrentRole = strings.TrimSpace(out.CurrentRole)
	snap.PreviousRoles = out.PreviousRoles

	if len(snap.Skills) == 0 {
		snap.Unparsed = true
		snap.ParseError = "no skills extracted"
	}

	return snap, nil
}
