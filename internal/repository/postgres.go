package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dan9191/cashflow-service/internal/models"
)

const uniqueViolation = "23505"

// PostgresStore keeps jobs in PostgreSQL, one row per job with the full job as JSONB
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore initializes a new PostgreSQL job store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the schema and jobs table when missing
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS cashflow;
		CREATE TABLE IF NOT EXISTS cashflow.jobs (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS jobs_updated_at_idx ON cashflow.jobs (updated_at);`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

// Create inserts a new job
func (r *PostgresStore) Create(ctx context.Context, job *models.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required: %w", models.ErrInvalidInput)
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	query := `
		INSERT INTO cashflow.jobs (id, status, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query, job.ID, job.Status, payload, job.CreatedAt, job.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("job %s already exists: %w", job.ID, models.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Get retrieves a job by id
func (r *PostgresStore) Get(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT payload FROM cashflow.jobs WHERE id = $1`
	return scanJob(r.db.QueryRowContext(ctx, query, id))
}

// Update locks the job row, applies fn and writes the result back in one transaction
func (r *PostgresStore) Update(ctx context.Context, id string, fn func(*models.Job) error) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT payload FROM cashflow.jobs WHERE id = $1 FOR UPDATE`
	job, err := scanJob(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	query = `
		UPDATE cashflow.jobs
		SET status = $2, payload = $3, updated_at = $4
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, job.Status, payload, job.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit job update: %w", err)
	}
	return job, nil
}

// DeleteOlderThan removes jobs last updated before cutoff
func (r *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM cashflow.jobs WHERE updated_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted jobs: %w", err)
	}
	return int(n), nil
}

func scanJob(row *sql.Row) (*models.Job, error) {
	var payload []byte
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}

	job := &models.Job{}
	if err := json.Unmarshal(payload, job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return job, nil
}
