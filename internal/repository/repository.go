package repository

import (
	"context"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// JobStore persists jobs keyed by id. Implementations serialise Update per job id
// so that concurrent stages of the same job never lose each other's writes.
type JobStore interface {
	// Create stores a new job. The id must not exist yet.
	Create(ctx context.Context, job *models.Job) error
	// Get returns a snapshot of the job or models.ErrJobNotFound.
	Get(ctx context.Context, id string) (*models.Job, error)
	// Update applies fn to the current job state and stores the result.
	// An error returned by fn aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, fn func(*models.Job) error) (*models.Job, error)
	// DeleteOlderThan removes jobs last updated before cutoff and reports how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
