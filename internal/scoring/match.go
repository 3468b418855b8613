package scoring

import (
	"math"
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"
)

var skillAliases = map[string]string{
	"golang":   "go",
	"k8s":      "kubernetes",
	"postgres": "postgresql",
	"js":       "javascript",
	"ts":       "typescript",
}

// Cities known under several names. The first entry is the canonical one.
var metroAreas = [][]string{
	{"san francisco", "sf", "bay area", "sf bay area", "silicon valley", "san jose", "oakland", "palo alto"},
	{"new york", "nyc", "new york city", "manhattan", "brooklyn"},
	{"los angeles", "la", "santa monica"},
	{"seattle", "bellevue", "redmond"},
	{"boston", "cambridge"},
	{"washington", "washington dc", "dc", "arlington"},
	{"london", "greater london"},
}

// Other names for the same city, as opposed to neighbours in its metro area.
var cityAliases = map[string]string{
	"sf":            "san francisco",
	"nyc":           "new york",
	"new york city": "new york",
	"la":            "los angeles",
	"dc":            "washington",
	"washington dc": "washington",
}

var metroAliases = func() map[string]string {
	m := make(map[string]string)
	for _, area := range metroAreas {
		for _, name := range area {
			m[name] = area[0]
		}
	}
	return m
}()

// NormalizeSkill lower-cases a skill name and resolves common aliases.
func NormalizeSkill(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := skillAliases[s]; ok {
		return alias
	}
	return s
}

// SkillsMatch scores the share of required skills present in the resume.
// It returns false when there are no required skills to compare.
func SkillsMatch(required, resume []string) (score float64, matched, missing []string, ok bool) {
	have := make(map[string]struct{}, len(resume))
	for _, s := range resume {
		if n := NormalizeSkill(s); n != "" {
			have[n] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(required))
	for _, s := range required {
		n := NormalizeSkill(s)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, found := have[n]; found {
			matched = append(matched, strings.TrimSpace(s))
		} else {
			missing = append(missing, strings.TrimSpace(s))
		}
	}

	total := len(matched) + len(missing)
	if total == 0 {
		return 0, nil, nil, false
	}
	return jobs.MaxSkillsMatch * float64(len(matched)) / float64(total), matched, missing, true
}

// JobLevel is the posting's stated seniority, or the one implied by its title.
func JobLevel(job *jobs.Posting) profile.Level {
	if level := profile.ParseLevel(job.Seniority); level != profile.LevelUnknown {
		return level
	}
	return profile.InferLevel(job.Title)
}

// ExperienceMatch compares seniority levels: same level 20, one apart 10,
// further 0. Unknown levels score half the band.
func ExperienceMatch(candidate profile.Level, job *jobs.Posting) float64 {
	want, okJob := JobLevel(job).Rank()
	have, okCandidate := candidate.Rank()
	if !okJob || !okCandidate {
		return jobs.MaxExperienceMatch / 2
	}

	switch int(math.Abs(float64(want - have))) {
	case 0:
		return jobs.MaxExperienceMatch
	case 1:
		return jobs.MaxExperienceMatch / 2
	default:
		return 0
	}
}

// PreferencesMatch scores the share of preferences found in the posting attributes.
func PreferencesMatch(preferences []string, job *jobs.Posting) (float64, []string) {
	prefs := profile.NormalizeSet(preferences)
	if len(prefs) == 0 {
		return jobs.MaxPreferencesMatch, nil
	}

	attributes := []string{
		job.WorkMode,
		job.Industry,
		job.CompanySize,
		job.EmploymentType,
		job.Location,
		job.Title,
	}

	var matched []string
	for _, pref := range prefs {
		needle := strings.ToLower(pref)
		for _, attr := range attributes {
			if attr != "" && strings.Contains(strings.ToLower(attr), needle) {
				matched = append(matched, pref)
				break
			}
		}
	}
	return jobs.MaxPreferencesMatch * float64(len(matched)) / float64(len(prefs)), matched
}

// LocationMatch scores the posting location against the preferred one.
func LocationMatch(preferred string, job *jobs.Posting) float64 {
	pref := normalizeLocation(preferred)
	if pref == "" {
		return jobs.MaxLocationMatch
	}
	loc := normalizeLocation(job.Location)
	if pref == loc {
		return jobs.MaxLocationMatch
	}
	if job.IsRemote() {
		return jobs.MaxLocationMatch
	}
	if pref == "remote" {
		return 0
	}
	if c := city(pref); c != "" && c == city(loc) {
		return jobs.MaxLocationMatch
	}
	if m := metro(pref); m != "" && m == metro(loc) {
		return jobs.MaxLocationMatch / 2
	}
	return 0
}

func normalizeLocation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// city returns the first comma separated segment of a normalized location,
// so "san francisco, ca" and "san francisco, california" agree.
func city(loc string) string {
	first, _, _ := strings.Cut(loc, ",")
	first = strings.TrimSpace(first)
	if first == "" || first == "unknown" {
		return ""
	}
	if canonical, ok := cityAliases[first]; ok {
		return canonical
	}
	return first
}

func metro(loc string) string {
	first, _, _ := strings.Cut(loc, ",")
	first = strings.TrimSpace(first)
	if first == "" || first == "unknown" {
		return ""
	}
	if canonical, ok := metroAliases[first]; ok {
		return canonical
	}
	if canonical, ok := metroAliases[loc]; ok {
		return canonical
	}
	return first
}
