package store

import (
	"context"
	"errors"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"
)

// ErrNotFound is returned by Get when no posting has the id.
var ErrNotFound = errors.New("job not found")

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	MinScore *float64
	Status   *jobs.Status
}

// Match reports whether p passes the filter. Unscored postings never pass a
// MinScore filter.
func (f Filter) Match(p *jobs.Posting) bool {
	if f.MinScore != nil && (p.Score == nil || p.Score.Total < *f.MinScore) {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	return true
}

// Store persists postings and the resume snapshot. A successful write is
// durable and readers never observe a partially written record.
type Store interface {
	Put(ctx context.Context, p *jobs.Posting) error
	Get(ctx context.Context, id string) (*jobs.Posting, error)
	// List returns matching postings in review order.
	List(ctx context.Context, f Filter) (*jobs.Postings, error)

	UpsertResumeProfile(ctx context.Context, s *profile.Snapshot) error
	// GetResumeProfile returns the cached snapshot, or nil when there is none
	// or allowCache is false.
	GetResumeProfile(ctx context.Context, allowCache bool) (*profile.Snapshot, error)

	Close() error
}

// MinScore is a helper for building filters.
func MinScore(v float64) *float64 {
	return &v
}

// WithStatus is a helper for building filters.
func WithStatus(s jobs.Status) *jobs.Status {
	return &s
}
