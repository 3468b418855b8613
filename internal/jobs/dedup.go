package jobs

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const idLength = 12

// Key is the normalized identity of a posting.
type Key struct {
	Title   string
	Company string
	URL     string
}

// NewKey normalizes the identity fields.
func NewKey(title, company, url string) Key {
	return Key{
		Title:   normalize(title),
		Company: normalize(company),
		URL:     normalize(url),
	}
}

// ID derives the stable posting id from the key.
func (k Key) ID() string {
	sum := md5.Sum([]byte(k.Title + "\x00" + k.Company + "\x00" + k.URL))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Key returns the normalized identity of the posting.
func (p *Posting) Key() Key {
	return NewKey(p.Title, p.Company, p.URL)
}

// AssignID sets the posting id from its identity key.
func (p *Posting) AssignID() {
	p.ID = p.Key().ID()
}

// IsDuplicate reports whether any of existing shares the candidate's identity key.
func IsDuplicate(candidate *Posting, existing []*Posting) bool {
	if candidate == nil {
		return false
	}
	key := candidate.Key()
	for _, p := range existing {
		if p != nil && p.Key() == key {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
