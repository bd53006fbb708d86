package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// MemoryStore keeps jobs for the lifetime of the process.
// Stored jobs are replaced on update, never modified in place, so snapshots
// handed out by Get stay consistent.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*models.Job
	locks map[string]*sync.Mutex
}

// NewMemoryStore initializes an empty in-memory job store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[string]*models.Job),
		locks: make(map[string]*sync.Mutex),
	}
}

// Create stores a new job
func (s *MemoryStore) Create(ctx context.Context, job *models.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required: %w", models.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists: %w", job.ID, models.ErrInvalidInput)
	}
	cp := *job
	s.jobs[job.ID] = &cp
	s.locks[job.ID] = &sync.Mutex{}
	return nil
}

// Get returns a snapshot of the job
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

// Update applies fn under the job's lock
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*models.Job) error) (*models.Job, error) {
	s.mu.RLock()
	lock, ok := s.locks[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrJobNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// evicted while fn was running
	if _, ok := s.jobs[id]; !ok {
		return nil, models.ErrJobNotFound
	}
	s.jobs[id] = current
	cp := *current
	return &cp, nil
}

// DeleteOlderThan evicts jobs not updated since cutoff
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			delete(s.locks, id)
			deleted++
		}
	}
	return deleted, nil
}
