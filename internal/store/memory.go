package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finanalyzer/api/internal/model"
)

// MemoryStore is an in-process JobStore used when no database is
// configured, and by tests. Records do not survive a restart.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

func (s *MemoryStore) Create(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, skip, limit int) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		all = append(all, *job)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if skip >= len(all) {
		return []model.Job{}, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) MarkProcessing(_ context.Context, id string) error {
	return s.transition(id, func(job *model.Job) {
		job.Status = model.JobStatusProcessing
	})
}

func (s *MemoryStore) Complete(_ context.Context, id, result string) error {
	return s.transition(id, func(job *model.Job) {
		now := time.Now().UTC()
		job.Status = model.JobStatusCompleted
		job.Result = &result
		job.CompletedAt = &now
	})
}

func (s *MemoryStore) Fail(_ context.Context, id, errMsg string) error {
	return s.transition(id, func(job *model.Job) {
		now := time.Now().UTC()
		job.Status = model.JobStatusFailed
		job.Error = &errMsg
		job.CompletedAt = &now
	})
}

func (s *MemoryStore) transition(id string, apply func(*model.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	// Terminal states are final; repeated transitions are no-ops.
	if job.Status.Terminal() {
		return nil
	}
	apply(job)
	return nil
}
