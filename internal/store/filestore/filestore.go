package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spigell/job-assistant/internal/jobs"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/store"
	"github.com/spigell/job-assistant/internal/utils"

	"go.uber.org/zap"
)

const (
	jobsDir     = "jobs"
	profileFile = "resume_profile.json"
	filePerm    = 0o600
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Store keeps one JSON document per posting under <dir>/jobs.
type Store struct {
	dir    string
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// New creates the directory layout under dir if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(dir, jobsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Put(_ context.Context, p *jobs.Posting) error {
	if p == nil {
		return errors.New("posting is required")
	}
	path, err := s.jobPath(p.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", p.ID, err)
	}
	if err := utils.WriteFileAtomic(path, data, filePerm); err != nil {
		return fmt.Errorf("write job %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*jobs.Posting, error) {
	path, err := s.jobPath(id)
	if err != nil {
		return nil, err
	}
	p, err := readJob(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return p, err
}

func (s *Store) List(ctx context.Context, f store.Filter) (*jobs.Postings, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, jobsDir))
	if err != nil {
		return nil, fmt.Errorf("read jobs directory: %w", err)
	}

	out := &jobs.Postings{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}

		p, err := readJob(filepath.Join(s.dir, jobsDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable job file", zap.String("file", name), zap.Error(err))
			continue
		}
		if f.Match(p) {
			out.Items = append(out.Items, p)
		}
	}

	out.SortForReview()
	return out, nil
}

func (s *Store) UpsertResumeProfile(_ context.Context, snap *profile.Snapshot) error {
	if snap == nil {
		return errors.New("resume profile is required")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resume profile: %w", err)
	}
	if err := utils.WriteFileAtomic(filepath.Join(s.dir, profileFile), data, filePerm); err != nil {
		return fmt.Errorf("write resume profile: %w", err)
	}
	return nil
}

func (s *Store) GetResumeProfile(_ context.Context, allowCache bool) (*profile.Snapshot, error) {
	if !allowCache {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resume profile: %w", err)
	}

	var snap profile.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse resume profile: %w", err)
	}
	return &snap, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) jobPath(id string) (string, error) {
	if !validID.MatchString(id) {
		return "", fmt.Errorf("invalid job id %q", id)
	}
	return filepath.Join(s.dir, jobsDir, id+".json"), nil
}

func readJob(path string) (*jobs.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p jobs.Posting
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}
