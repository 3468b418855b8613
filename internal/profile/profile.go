package profile

import (
	"strings"
	"time"
)

// Level is a seniority level.
type Level string

const (
	LevelUnknown   Level = ""
	LevelEntry     Level = "entry"
	LevelMid       Level = "mid"
	LevelSenior    Level = "senior"
	LevelExecutive Level = "executive"
)

var levelRank = map[Level]int{
	LevelEntry:     0,
	LevelMid:       1,
	LevelSenior:    2,
	LevelExecutive: 3,
}

var levelAliases = map[string]Level{
	"entry":     LevelEntry,
	"junior":    LevelEntry,
	"jr":        LevelEntry,
	"intern":    LevelEntry,
	"graduate":  LevelEntry,
	"mid":       LevelMid,
	"middle":    LevelMid,
	"mid-level": LevelMid,
	"senior":    LevelSenior,
	"sr":        LevelSenior,
	"staff":     LevelSenior,
	"principal": LevelSenior,
	"lead":      LevelSenior,
	"executive": LevelExecutive,
	"director":  LevelExecutive,
	"vp":        LevelExecutive,
	"head":      LevelExecutive,
	"chief":     LevelExecutive,
	"cto":       LevelExecutive,
}

// ParseLevel maps free text like "Senior" or "mid-level" to a Level.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if l, ok := levelAliases[s]; ok {
		return l
	}
	return LevelUnknown
}

// InferLevel looks for seniority keywords in a job title.
func InferLevel(title string) Level {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && r != '-'
	})
	found := LevelUnknown
	for _, w := range words {
		l, ok := levelAliases[w]
		if !ok {
			continue
		}
		if found == LevelUnknown || levelRank[l] > levelRank[found] {
			found = l
		}
	}
	return found
}

// Rank returns the ordinal of the level and false when unknown.
func (l Level) Rank() (int, bool) {
	r, ok := levelRank[l]
	return r, ok
}

// Project is a notable project from the resume.
type Project struct {
	Name         string   `json:"name" mapstructure:"name"`
	Description  string   `json:"description" mapstructure:"description"`
	Technologies []string `json:"technologies" mapstructure:"technologies"`
}

// Role is a previous position from the resume.
type Role struct {
	Title    string `json:"title" mapstructure:"title"`
	Company  string `json:"company" mapstructure:"company"`
	Duration string `json:"duration" mapstructure:"duration"`
}

// Education is a degree from the resume.
type Education struct {
	Degree      string `json:"degree" mapstructure:"degree"`
	Field       string `json:"field" mapstructure:"field"`
	Institution string `json:"institution" mapstructure:"institution"`
	Year        string `json:"year" mapstructure:"year"`
}

// Snapshot is an immutable, versioned view of the resume.
type Snapshot struct {
	Version          int         `json:"version"`
	Source           string      `json:"source"`
	Skills           []string    `json:"skills"`
	ExperienceYears  float64     `json:"experience_years"`
	ExperienceLevel  Level       `json:"experience_level"`
	Preferences      []string    `json:"preferences"`
	AreasOfExpertise []string    `json:"areas_of_expertise"`
	CurrentRole      string      `json:"current_role"`
	Projects         []Project   `json:"notable_projects"`
	PreviousRoles    []Role      `json:"previous_roles"`
	Education        []Education `json:"education"`
	RawText          string      `json:"raw_text"`
	Unparsed         bool        `json:"unparsed,omitempty"`
	ParseError       string      `json:"parse_error,omitempty"`
	CachedAt         time.Time   `json:"cached_at"`
}

// Fresh reports whether the snapshot is younger than ttl. Zero ttl never expires.
func (s *Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if s == nil {
		return false
	}
	if ttl <= 0 {
		return true
	}
	return now.Sub(s.CachedAt) < ttl
}

// NormalizeSet trims, drops empties and removes case-insensitive duplicates.
func NormalizeSet(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
