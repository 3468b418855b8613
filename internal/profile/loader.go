package profile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DefaultCacheTTL = 24 * time.Hour

// Cache persists snapshots between runs.
type Cache interface {
	UpsertResumeProfile(ctx context.Context, s *Snapshot) error
	GetResumeProfile(ctx context.Context, allowCache bool) (*Snapshot, error)
}

// Source builds a fresh snapshot.
type Source interface {
	Build(ctx context.Context) (*Snapshot, error)
}

// Loader returns the resume snapshot, rebuilding it when the cache is stale
// or bypassed.
type Loader struct {
	cache       Cache
	source      Source
	preferences []string
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewLoader creates a loader. preferences come from configuration and are
// applied to every snapshot it returns.
func NewLoader(cache Cache, source Source, preferences []string, ttl time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Loader{
		cache:       cache,
		source:      source,
		preferences: NormalizeSet(preferences),
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// Load returns the cached snapshot when allowed and fresh, otherwise builds,
// versions and stores a new one.
func (l *Loader) Load(ctx context.Context, allowCache bool) (*Snapshot, error) {
	if allowCache {
		cached, err := l.cache.GetResumeProfile(ctx, true)
		if err != nil {
			l.logger.Warn("reading cached resume profile", zap.Error(err))
		}
		if cached != nil && cached.Fresh(l.now(), l.ttl) {
			l.logger.Debug("using cached resume profile",
				zap.Int("version", cached.Version),
				zap.Time("cached_at", cached.CachedAt),
			)
			cached.Preferences = l.preferences
			return cached, nil
		}
	}

	return l.rebuild(ctx)
}

// Refresh always rebuilds and overwrites the stored snapshot.
func (l *Loader) Refresh(ctx context.Context) (*Snapshot, error) {
	return l.Load(ctx, false)
}

func (l *Loader) rebuild(ctx context.Context) (*Snapshot, error) {
	snap, err := l.source.Build(ctx)
	if err != nil {
		return nil, err
	}

	// Only the version number is taken from the previous snapshot.
	previous, err := l.cache.GetResumeProfile(ctx, true)
	if err != nil {
		l.logger.Warn("reading previous resume profile version", zap.Error(err))
	}
	snap.Version = 1
	if previous != nil {
		snap.Version = previous.Version + 1
	}
	snap.Preferences = l.preferences

	if err := l.cache.UpsertResumeProfile(ctx, snap); err != nil {
		return nil, fmt.Errorf("store resume profile: %w", err)
	}

	l.logger.Info("resume profile rebuilt",
		zap.Int("version", snap.Version),
		zap.Int("skills", len(snap.Skills)),
		zap.String("level", string(snap.ExperienceLevel)),
		zap.Bool("unparsed", snap.Unparsed),
	)
	return snap, nil
}
