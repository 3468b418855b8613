package extract

import (
	"regexp"
	"strings"

	"github.com/spigell/job-assistant/internal/utils"
)

const (
	unknown           = "Unknown"
	maxTitleLength    = 100
	maxFallbackLength = 500
)

var (
	replyPrefix = regexp.MustCompile(`(?i)^\s*(re|fwd?)\s*:\s*`)
	urlPattern  = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")

	titleSeparators = []string{" | ", " - ", " – ", " — "}
	jobURLKeywords  = []string{"job", "career", "apply", "position", "opening"}

	knownSources = []struct {
		marker string
		name   string
	}{
		{"linkedin", "LinkedIn"},
		{"indeed", "Indeed"},
		{"glassdoor", "Glassdoor"},
		{"ziprecruiter", "ZipRecruiter"},
		{"monster", "Monster"},
	}
)

// TitleFromSubject strips reply prefixes and keeps the part before the first separator.
func TitleFromSubject(subject string) string {
	title := strings.TrimSpace(subject)
	for {
		stripped := replyPrefix.ReplaceAllString(title, "")
		if stripped == title {
			break
		}
		title = stripped
	}

	cut := len(title)
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx != -1 && idx < cut {
			cut = idx
		}
	}
	return utils.Truncate(strings.TrimSpace(title[:cut]), maxTitleLength)
}

// URLFromBody returns the first URL that looks like a job link, else the first URL.
func URLFromBody(body string) string {
	urls := urlPattern.FindAllString(body, -1)
	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, kw := range jobURLKeywords {
			if strings.Contains(lower, kw) {
				return u
			}
		}
	}
	if len(urls) > 0 {
		return urls[0]
	}
	return ""
}

// SourceFromSender names the job board that sent the alert.
func SourceFromSender(from string) string {
	lower := strings.ToLower(from)
	for _, s := range knownSources {
		if strings.Contains(lower, s.marker) {
			return s.name
		}
	}
	return unknown
}

func descriptionFromBody(body string) string {
	return strings.TrimSpace(utils.Truncate(strings.TrimSpace(body), maxFallbackLength))
}
