package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/store"

	"go.uber.org/zap"
)

const (
	upsertJobSQL = `INSERT INTO jobs (id, title, company, url, status, score_total, received_at, data, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    company = EXCLUDED.company,
    url = EXCLUDED.url,
    status = EXCLUDED.status,
    score_total = EXCLUDED.score_total,
    received_at = EXCLUDED.received_at,
    data = EXCLUDED.data,
    updated_at = now()`

	getJobSQL = `SELECT data FROM jobs WHERE id = $1`

	listJobsSQL = `SELECT data FROM jobs
WHERE ($1::double precision IS NULL OR score_total >= $1)
  AND ($2::text IS NULL OR status = $2)
ORDER BY score_total DESC NULLS LAST, received_at ASC, id ASC`

	upsertProfileSQL = `INSERT INTO resume_profiles (version, data, cached_at)
VALUES ($1, $2, $3)
ON CONFLICT (version) DO UPDATE SET data = EXCLUDED.data, cached_at = EXCLUDED.cached_at`

	latestProfileSQL = `SELECT data FROM resume_profiles ORDER BY version DESC LIMIT 1`
)

// Store keeps postings in Postgres. Each write is a single statement, so a
// record is either fully stored or absent.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Open connects to databaseURL, applies migrations and returns the store.
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	db, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return New(db, logger), nil
}

func (s *Store) Put(ctx context.Context, p *jobs.Posting) error {
	if p == nil {
		return errors.New("posting is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", p.ID, err)
	}

	var total sql.NullFloat64
	if p.Score != nil {
		total = sql.NullFloat64{Float64: p.Score.Total, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, upsertJobSQL,
		p.ID, p.Title, p.Company, p.URL, string(p.Status), total, p.ReceivedAt, data,
	); err != nil {
		return fmt.Errorf("upsert job %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*jobs.Posting, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, getJobSQL, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select job %s: %w", id, err)
	}
	return decodeJob(data)
}

func (s *Store) List(ctx context.Context, f store.Filter) (*jobs.Postings, error) {
	var (
		minScore sql.NullFloat64
		status   sql.NullString
	)
	if f.MinScore != nil {
		minScore = sql.NullFloat64{Float64: *f.MinScore, Valid: true}
	}
	if f.Status != nil {
		status = sql.NullString{String: string(*f.Status), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, listJobsSQL, minScore, status)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := &jobs.Postings{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		p, err := decodeJob(data)
		if err != nil {
			s.logger.Warn("skipping undecodable job row", zap.Error(err))
			continue
		}
		out.Items = append(out.Items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	out.SortForReview()
	return out, nil
}

func (s *Store) UpsertResumeProfile(ctx context.Context, snap *profile.Snapshot) error {
	if snap == nil {
		return errors.New("resume profile is required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal resume profile: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertProfileSQL, snap.Version, data, snap.CachedAt); err != nil {
		return fmt.Errorf("upsert resume profile: %w", err)
	}
	return nil
}

func (s *Store) GetResumeProfile(ctx context.Context, allowCache bool) (*profile.Snapshot, error) {
	if !allowCache {
		return nil, nil
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, latestProfileSQL).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select resume profile: %w", err)
	}

	var snap profile.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse resume profile: %w", err)
	}
	return &snap, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func decodeJob(data []byte) (*jobs.Posting, error) {
	var p jobs.Posting
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	return &p, nil
}
