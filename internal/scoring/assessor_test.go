package scoring

import (
	"context"
	"testing"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response string
}

func (s *stubGenerator) GenerateContent(context.Context, string, ai.Options) (string, error) {
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub" }

func TestLLMAssessorOverallFit(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
		wantErr  bool
	}{
		{name: "number", response: `{"overall_fit": 8, "reasoning": " solid "}`, want: 8},
		{name: "string", response: `{"overall_fit": "7.5", "reasoning": "ok"}`, want: 7.5},
		{name: "fraction", response: `{"overall_fit": "9/10", "reasoning": "ok"}`, want: 9},
		{name: "missing", response: `{"reasoning": "no idea"}`, wantErr: true},
		{name: "not a number", response: `{"overall_fit": "high", "reasoning": "ok"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLLMAssessor(ai.NewStructured(&stubGenerator{response: tt.response}, zap.NewNop(), 0))

			fit, reasoning, err := a.OverallFit(context.Background(), &profile.Snapshot{}, &jobs.Posting{Title: "Go Engineer"})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got fit %v", fit)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fit != tt.want {
				t.Fatalf("expected fit %v, got %v", tt.want, fit)
			}
			if tt.name == "number" && reasoning != "solid" {
				t.Fatalf("expected trimmed reasoning, got %q", reasoning)
			}
		})
	}
}
