package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doculens/internal/domain"
	"doculens/internal/port"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates a new PostgreSQL-backed JobRepository.
func NewJobRepo(db *sqlx.DB) port.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.ExtractionJob) error {
	query := `INSERT INTO extraction_jobs
		(id, source_name, page_count, s3_bucket, page_key_prefix, content_types,
		 status, attempts, result, error, retry_after, created_at, updated_at)
	VALUES
		(:id, :source_name, :page_count, :s3_bucket, :page_key_prefix, :content_types,
		 :status, :attempts, :result, :error, :retry_after, NOW(), NOW())`

	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("jobRepo.Create: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	err := r.db.GetContext(ctx, &job,
		`SELECT * FROM extraction_jobs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, offset, limit int) ([]domain.ExtractionJob, int, error) {
	var jobs []domain.ExtractionJob
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT * FROM extraction_jobs ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.List: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM extraction_jobs`); err != nil {
		return nil, 0, fmt.Errorf("jobRepo.List count: %w", err)
	}
	return jobs, total, nil
}

// ClaimQueued moves up to limit due queued jobs to processing inside a single
// transaction. FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming
// the same rows.
func (r *jobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ExtractionJob, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var jobs []domain.ExtractionJob
	err = tx.SelectContext(ctx, &jobs,
		`SELECT * FROM extraction_jobs
		WHERE status = $1 AND (retry_after IS NULL OR retry_after <= NOW())
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		domain.JobStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued select: %w", err)
	}
	if len(jobs) == 0 {
		return nil, tx.Commit()
	}

	ids := make([]uuid.UUID, len(jobs))
	for i := range jobs {
		ids[i] = jobs[i].ID
		jobs[i].Status = domain.JobStatusProcessing
		jobs[i].Attempts++
	}

	query, args, err := sqlx.In(
		`UPDATE extraction_jobs
		SET status = ?, attempts = attempts + 1, updated_at = NOW()
		WHERE id IN (?)`,
		domain.JobStatusProcessing, ids)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued in: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued commit: %w", err)
	}
	return jobs, nil
}

func (r *jobRepo) Update(ctx context.Context, job *domain.ExtractionJob) error {
	query := `UPDATE extraction_jobs SET
		status = :status,
		attempts = :attempts,
		result = :result,
		error = :error,
		retry_after = :retry_after,
		updated_at = NOW()
	WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("jobRepo.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
