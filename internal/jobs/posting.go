package jobs

import (
	"time"
)

// Status is the lifecycle state of a posting.
type Status string

const (
	StatusNew                Status = "new"
	StatusScored             Status = "scored"
	StatusResearched         Status = "researched"
	StatusMaterialsGenerated Status = "materials-generated"
)

var statusOrder = map[Status]int{
	StatusNew:                0,
	StatusScored:             1,
	StatusResearched:         2,
	StatusMaterialsGenerated: 3,
}

// ParseStatus returns the status with the given name.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := statusOrder[st]
	return st, ok
}

// Advance moves the posting to next unless it is already further along.
func (p *Posting) Advance(next Status) {
	if statusOrder[next] > statusOrder[p.Status] {
		p.Status = next
	}
}

// Posting is a job extracted from an alert email.
type Posting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ReceivedAt  time.Time `json:"received_at"`
	MessageID   string    `json:"message_id,omitempty"`

	RequiredSkills []string `json:"required_skills,omitempty"`
	Seniority      string   `json:"seniority,omitempty"`
	WorkMode       string   `json:"work_mode,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	CompanySize    string   `json:"company_size,omitempty"`
	EmploymentType string   `json:"employment_type,omitempty"`
	Salary         string   `json:"salary,omitempty"`

	LowConfidence   bool   `json:"low_confidence,omitempty"`
	ExtractionError string `json:"extraction_error,omitempty"`

	Status    Status           `json:"status"`
	Score     *ScoreBreakdown  `json:"score,omitempty"`
	Research  *CompanyResearch `json:"research,omitempty"`
	Materials *Materials       `json:"materials,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRemote reports whether the posting is advertised as remote.
func (p *Posting) IsRemote() bool {
	return containsFold(p.WorkMode, "remote") || containsFold(p.Location, "remote")
}

// Total returns the score total or -1 for unscored postings.
func (p *Posting) Total() float64 {
	if p.Score == nil {
		return -1
	}
	return p.Score.Total
}

// CompanyResearch is what the researcher learned about an employer.
type CompanyResearch struct {
	Company      string    `json:"company"`
	Summary      string    `json:"summary"`
	TechStack    []string  `json:"tech_stack"`
	Values       []string  `json:"values"`
	RecentNews   []string  `json:"recent_news"`
	Culture      string    `json:"culture"`
	Size         string    `json:"size"`
	Industry     string    `json:"industry"`
	FundingStage string    `json:"funding_stage"`
	Sources      []string  `json:"sources"`
	ResearchedAt time.Time `json:"researched_at"`
	Error        string    `json:"error,omitempty"`
}

// Materials points at generated application files.
type Materials struct {
	CoverLetterPath string    `json:"cover_letter_path"`
	HighlightsPath  string    `json:"highlights_path"`
	GeneratedAt     time.Time `json:"generated_at"`
}
