package jobs

import (
	"testing"
	"time"
)

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	existing := []*Posting{
		{Title: "Backend Engineer", Company: "Acme", URL: "https://acme.io/jobs/1"},
		{Title: "Data Engineer", Company: "Globex", URL: "https://globex.com/careers/7"},
	}

	tests := []struct {
		name      string
		candidate *Posting
		want      bool
	}{
		{
			name:      "exact match",
			candidate: &Posting{Title: "Backend Engineer", Company: "Acme", URL: "https://acme.io/jobs/1"},
			want:      true,
		},
		{
			name:      "case and surrounding whitespace ignored",
			candidate: &Posting{Title: "  backend ENGINEER ", Company: "ACME\t", URL: " https://ACME.io/jobs/1"},
			want:      true,
		},
		{
			name:      "different url",
			candidate: &Posting{Title: "Backend Engineer", Company: "Acme", URL: "https://acme.io/jobs/2"},
			want:      false,
		},
		{
			name:      "no fuzzy matching",
			candidate: &Posting{Title: "Backend Engineer II", Company: "Acme", URL: "https://acme.io/jobs/1"},
			want:      false,
		},
		{
			name:      "nil candidate",
			candidate: nil,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsDuplicate(tt.candidate, existing); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsDuplicateSymmetric(t *testing.T) {
	a := &Posting{Title: "SRE", Company: "Initech", URL: "https://initech.com/apply"}
	b := &Posting{Title: "sre ", Company: " initech", URL: "https://initech.com/APPLY"}

	if IsDuplicate(a, []*Posting{b}) != IsDuplicate(b, []*Posting{a}) {
		t.Fatalf("expected duplicate check to be symmetric")
	}
	if a.Key().ID() != b.Key().ID() {
		t.Fatalf("expected equal ids, got %s and %s", a.Key().ID(), b.Key().ID())
	}
	if len(a.Key().ID()) != 12 {
		t.Fatalf("expected 12 character id, got %q", a.Key().ID())
	}
}

func TestScoreBreakdownNormalize(t *testing.T) {
	b := &ScoreBreakdown{
		SkillsMatch:      40.0 * 2 / 3,
		ExperienceMatch:  25,
		PreferencesMatch: -3,
		LocationMatch:    5,
		OverallFit:       7.25,
	}
	b.Normalize()

	if b.SkillsMatch != 26.7 {
		t.Fatalf("expected skills match 26.7, got %v", b.SkillsMatch)
	}
	if b.ExperienceMatch != MaxExperienceMatch {
		t.Fatalf("expected experience clamped to 20, got %v", b.ExperienceMatch)
	}
	if b.PreferencesMatch != 0 {
		t.Fatalf("expected preferences clamped to 0, got %v", b.PreferencesMatch)
	}
	if b.OverallFit != 7.3 {
		t.Fatalf("expected overall fit rounded half away from zero to 7.3, got %v", b.OverallFit)
	}
	if b.Total != 59 {
		t.Fatalf("expected total 59, got %v", b.Total)
	}
	if !b.Valid() {
		t.Fatalf("expected normalized breakdown to be valid: %+v", b)
	}
}

func TestScoreBreakdownValid(t *testing.T) {
	b := &ScoreBreakdown{SkillsMatch: 41, Total: 41}
	if b.Valid() {
		t.Fatalf("expected out of band skills match to be invalid")
	}

	b = &ScoreBreakdown{SkillsMatch: 10, LocationMatch: 5, Total: 20}
	if b.Valid() {
		t.Fatalf("expected total mismatch to be invalid")
	}
}

func TestSortForReview(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	postings := &Postings{Items: []*Posting{
		{ID: "unscored", ReceivedAt: base},
		{ID: "late80", ReceivedAt: base.Add(2 * time.Hour), Score: &ScoreBreakdown{Total: 80}},
		{ID: "top", ReceivedAt: base.Add(3 * time.Hour), Score: &ScoreBreakdown{Total: 91.5}},
		{ID: "early80", ReceivedAt: base.Add(time.Hour), Score: &ScoreBreakdown{Total: 80}},
		{ID: "b-same", ReceivedAt: base, Score: &ScoreBreakdown{Total: 50}},
		{ID: "a-same", ReceivedAt: base, Score: &ScoreBreakdown{Total: 50}},
	}}

	postings.SortForReview()

	want := []string{"top", "early80", "late80", "a-same", "b-same", "unscored"}
	for i, id := range want {
		if postings.Items[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, postings.Items[i].ID)
		}
	}
}

func TestExcludeByCompany(t *testing.T) {
	postings := &Postings{Items: []*Posting{
		{ID: "1", Company: "Acme"},
		{ID: "2", Company: "Globex"},
		{ID: "3", Company: " acme "},
	}}

	excluded := postings.Exclude(FieldCompany, []string{"ACME"})
	if len(excluded) != 2 {
		t.Fatalf("expected 2 excluded postings, got %v", excluded)
	}
	if postings.Len() != 1 || postings.Items[0].ID != "2" {
		t.Fatalf("unexpected remaining postings: %+v", postings.Items)
	}
}

func TestAdvance(t *testing.T) {
	p := &Posting{Status: StatusResearched}
	p.Advance(StatusScored)
	if p.Status != StatusResearched {
		t.Fatalf("expected status to stay researched, got %s", p.Status)
	}
	p.Advance(StatusMaterialsGenerated)
	if p.Status != StatusMaterialsGenerated {
		t.Fatalf("expected materials-generated, got %s", p.Status)
	}
}

func TestByCompany(t *testing.T) {
	postings := &Postings{Items: []*Posting{
		{ID: "1", Company: "Acme"},
		{ID: "2", Company: "Unknown"},
		{ID: "3", Company: "ACME"},
		{ID: "4", Company: "Globex"},
	}}

	order, groups := postings.ByCompany()
	if len(order) != 2 || order[0] != "acme" || order[1] != "globex" {
		t.Fatalf("unexpected order: %v", order)
	}
	if len(groups["acme"]) != 2 {
		t.Fatalf("expected 2 acme postings, got %d", len(groups["acme"]))
	}
}
