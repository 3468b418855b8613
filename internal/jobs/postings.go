package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	FieldID      = "ID"
	FieldCompany = "Company"
)

// Postings is an ordered collection of postings.
type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case FieldID:
		return p.ID
	case FieldCompany:
		return normalize(p.Company)
	default:
		return ""
	}
}

// Exclude drops postings whose field matches one of targets and returns the dropped ids.
func (p *Postings) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if name == FieldCompany {
			target = normalize(target)
		}
		set[target] = struct{}{}
	}

	return p.ExcludeFunc(func(posting *Posting) bool {
		_, ok := set[posting.GetStringField(name)]
		return ok
	})
}

// ExcludeFunc drops postings matching fn, keeping the order of the rest.
func (p *Postings) ExcludeFunc(fn func(*Posting) bool) []string {
	var excluded []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if fn(posting) {
			excluded = append(excluded, posting.ID)
			continue
		}
		kept = append(kept, posting)
	}
	for i := len(kept); i < len(p.Items); i++ {
		p.Items[i] = nil
	}
	p.Items = kept
	return excluded
}

// SortForReview orders by total descending, then received_at ascending, then id.
// Unscored postings go last.
func (p *Postings) SortForReview() {
	sort.SliceStable(p.Items, func(i, j int) bool {
		return Less(p.Items[i], p.Items[j])
	})
}

// Less is the review order.
func Less(a, b *Posting) bool {
	if ta, tb := a.Total(), b.Total(); ta != tb {
		return ta > tb
	}
	if !a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ReceivedAt.Before(b.ReceivedAt)
	}
	return a.ID < b.ID
}

// ByCompany groups postings by normalized company name, preserving first-seen order.
func (p *Postings) ByCompany() ([]string, map[string][]*Posting) {
	var order []string
	groups := make(map[string][]*Posting)
	for _, posting := range p.Items {
		key := normalize(posting.Company)
		if key == "" || key == "unknown" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], posting)
	}
	return order, groups
}

// ReportByCompany summarizes postings per company for operator output.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		score := "not scored"
		if posting.Score != nil {
			score = fmt.Sprintf("%.1f", posting.Score.Total)
		}
		report[posting.Company] = append(report[posting.Company], map[string]string{
			"id":       posting.ID,
			"title":    posting.Title,
			"location": posting.Location,
			"url":      posting.URL,
			"score":    score,
		})
	}
	return report
}

// DumpToTmpFile writes the postings as indented JSON to a temp file.
func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// SameCompany reports whether two company names refer to the same employer.
func SameCompany(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
