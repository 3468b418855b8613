package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"

	"go.uber.org/zap"
)

type stubAssessor struct {
	skills     []string
	skillsErr  error
	fit        float64
	reasoning  string
	fitErr     error
	skillCalls int
}

func (s *stubAssessor) RequiredSkills(context.Context, *jobs.Posting) ([]string, error) {
	s.skillCalls++
	return s.skills, s.skillsErr
}

func (s *stubAssessor) OverallFit(context.Context, *profile.Snapshot, *jobs.Posting) (float64, string, error) {
	return s.fit, s.reasoning, s.fitErr
}

func seniorProfile() *profile.Snapshot {
	return &profile.Snapshot{
		Version:         3,
		Skills:          []string{"Golang", "PostgreSQL", "Docker"},
		ExperienceLevel: profile.LevelSenior,
	}
}

func TestScoreTwoOfThreeSkills(t *testing.T) {
	job := &jobs.Posting{
		ID:             "abc",
		Title:          "Senior Backend Engineer",
		Location:       "Berlin",
		RequiredSkills: []string{"Go", "Postgres", "Kubernetes"},
	}
	assessor := &stubAssessor{fit: 7.25, reasoning: "good trajectory"}

	b, err := NewScorer(assessor, zap.NewNop()).Score(context.Background(), seniorProfile(), job, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.SkillsMatch != 26.7 {
		t.Fatalf("expected skills 26.7, got %v", b.SkillsMatch)
	}
	if b.ExperienceMatch != 20 || b.PreferencesMatch != 20 || b.LocationMatch != 10 {
		t.Fatalf("unexpected sub-scores %+v", b)
	}
	if b.OverallFit != 7.3 {
		t.Fatalf("expected fit 7.3, got %v", b.OverallFit)
	}
	if b.Total != 84 {
		t.Fatalf("expected total 84, got %v", b.Total)
	}
	if !b.Valid() {
		t.Fatalf("expected valid breakdown %+v", b)
	}
	if len(b.MissingSkills) != 1 || b.MissingSkills[0] != "Kubernetes" {
		t.Fatalf("unexpected missing skills %v", b.MissingSkills)
	}
	if assessor.skillCalls != 0 {
		t.Fatalf("expected extracted skills to be used without asking the model")
	}
	if b.ProfileVersion != 3 || b.NeedsReview {
		t.Fatalf("unexpected metadata %+v", b)
	}
}

func TestScoreAsksForRequiredSkills(t *testing.T) {
	assessor := &stubAssessor{skills: []string{"docker"}, fit: 10}
	b, err := NewScorer(assessor, nil).Score(context.Background(), seniorProfile(), &jobs.Posting{Title: "Staff Engineer"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessor.skillCalls != 1 || b.SkillsMatch != 40 {
		t.Fatalf("expected assessed skills to score 40, got %v (calls %d)", b.SkillsMatch, assessor.skillCalls)
	}
	if b.Total != 100 {
		t.Fatalf("expected perfect score, got %v", b.Total)
	}
}

func TestScoreNoRequiredSkillsGetsHalfBand(t *testing.T) {
	b, err := NewScorer(&stubAssessor{fit: 5}, nil).Score(context.Background(), seniorProfile(), &jobs.Posting{Title: "Engineer"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.SkillsMatch != 20 || !b.NeedsReview {
		t.Fatalf("expected half band with review flag, got %+v", b)
	}
	if b.ExperienceMatch != 10 {
		t.Fatalf("expected unknown level to score 10, got %v", b.ExperienceMatch)
	}
}

func TestScoreAssessorFailuresZeroSubScores(t *testing.T) {
	assessor := &stubAssessor{
		skillsErr: errors.New("model down"),
		fitErr:    errors.New("model down"),
	}
	p := seniorProfile()
	p.Unparsed = true

	b, err := NewScorer(assessor, zap.NewNop()).Score(context.Background(), p, &jobs.Posting{Title: "Senior Engineer"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.SkillsMatch != 0 || b.OverallFit != 0 {
		t.Fatalf("expected zeroed sub-scores, got %+v", b)
	}
	if !b.NeedsReview || len(b.ReviewReasons) != 3 {
		t.Fatalf("expected three review reasons, got %v", b.ReviewReasons)
	}
	if b.Total != 50 {
		t.Fatalf("expected total 50, got %v", b.Total)
	}
}

func TestScoreStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assessor := &stubAssessor{fitErr: context.Canceled}
	_, err := NewScorer(assessor, nil).Score(ctx, seniorProfile(), &jobs.Posting{RequiredSkills: []string{"go"}}, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestScoreClampsOutOfRangeFit(t *testing.T) {
	b, err := NewScorer(&stubAssessor{fit: 42}, nil).Score(context.Background(), seniorProfile(), &jobs.Posting{RequiredSkills: []string{"go"}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.OverallFit != 10 {
		t.Fatalf("expected fit clamped to 10, got %v", b.OverallFit)
	}
}

func TestExperienceMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate profile.Level
		job       jobs.Posting
		want      float64
	}{
		{name: "same level", candidate: profile.LevelSenior, job: jobs.Posting{Seniority: "senior"}, want: 20},
		{name: "one apart", candidate: profile.LevelMid, job: jobs.Posting{Title: "Senior Engineer"}, want: 10},
		{name: "two apart", candidate: profile.LevelEntry, job: jobs.Posting{Title: "Lead Engineer"}, want: 0},
		{name: "unknown job", candidate: profile.LevelMid, job: jobs.Posting{Title: "Engineer"}, want: 10},
		{name: "seniority wins over title", candidate: profile.LevelEntry, job: jobs.Posting{Title: "Senior Engineer", Seniority: "junior"}, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExperienceMatch(tt.candidate, &tt.job); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPreferencesMatch(t *testing.T) {
	job := &jobs.Posting{Title: "Backend Engineer", WorkMode: "remote", Industry: "Fintech", EmploymentType: "full-time"}

	score, matched := PreferencesMatch([]string{"Remote", "fintech", "startup", "contract"}, job)
	if score != 10 || len(matched) != 2 {
		t.Fatalf("expected 10 with two matches, got %v %v", score, matched)
	}
	if score, _ := PreferencesMatch(nil, job); score != 20 {
		t.Fatalf("expected full band without preferences, got %v", score)
	}
}

func TestLocationMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pref string
		job  jobs.Posting
		want float64
	}{
		{name: "no preference", pref: "", job: jobs.Posting{Location: "Austin"}, want: 10},
		{name: "equal", pref: "Austin, TX", job: jobs.Posting{Location: " austin,  tx"}, want: 10},
		{name: "remote job", pref: "Austin", job: jobs.Posting{Location: "Remote (US)"}, want: 10},
		{name: "remote preferred onsite job", pref: "remote", job: jobs.Posting{Location: "Austin"}, want: 0},
		{name: "city alias", pref: "SF", job: jobs.Posting{Location: "San Francisco, CA"}, want: 10},
		{name: "same city different suffix", pref: "Austin", job: jobs.Posting{Location: "Austin, TX"}, want: 10},
		{name: "same city spelled out state", pref: "San Francisco, CA", job: jobs.Posting{Location: "San Francisco, California"}, want: 10},
		{name: "same metro", pref: "Oakland", job: jobs.Posting{Location: "San Francisco, CA"}, want: 5},
		{name: "same metro alias", pref: "NYC", job: jobs.Posting{Location: "Brooklyn, NY"}, want: 5},
		{name: "elsewhere", pref: "Austin", job: jobs.Posting{Location: "Denver"}, want: 0},
		{name: "unknown location", pref: "Austin", job: jobs.Posting{Location: "Unknown"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := LocationMatch(tt.pref, &tt.job); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSkillsMatchAliases(t *testing.T) {
	score, matched, missing, ok := SkillsMatch([]string{"k8s", "TS", "Kubernetes"}, []string{"kubernetes", "typescript"})
	if !ok || score != 40 {
		t.Fatalf("expected full score, got %v ok=%v", score, ok)
	}
	if len(matched) != 2 || len(missing) != 0 {
		t.Fatalf("expected duplicate alias to count once, got %v %v", matched, missing)
	}
}
