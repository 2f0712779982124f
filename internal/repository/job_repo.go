package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scriptorium/backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateTx inserts an open job and fills in the sequence-assigned id.
func (r *JobRepo) CreateTx(ctx context.Context, tx pgx.Tx, j *models.Job) error {
	return tx.QueryRow(ctx, `
		INSERT INTO jobs (client_id, title, description, payment_cents, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, j.ClientID, j.Title, j.Description, j.PaymentCents, j.Deadline, j.Status).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
}

const jobColumns = `id, client_id, writer_id, title, description, payment_cents, deadline, status, deliverable, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.ClientID, &j.WriterID, &j.Title, &j.Description, &j.PaymentCents, &j.Deadline, &j.Status, &j.Deliverable, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepo) GetByID(ctx context.Context, jobID int64) (*models.Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
}

// GetByIDForUpdateTx locks the job row so concurrent lifecycle operations on
// the same job serialize. Call within a transaction.
func (r *JobRepo) GetByIDForUpdateTx(ctx context.Context, tx pgx.Tx, jobID int64) (*models.Job, error) {
	return scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, jobID))
}

// CompleteTx assigns the writer, records the deliverable and marks the job
// completed, conditional on the job still being open. Returns false when the
// job already left the open state (a concurrent claim won).
func (r *JobRepo) CompleteTx(ctx context.Context, tx pgx.Tx, jobID int64, writerID uuid.UUID, deliverable string) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE jobs SET writer_id = $1, deliverable = $2, status = $3, updated_at = now()
		WHERE id = $4 AND status = $5
	`, writerID, deliverable, models.JobStatusCompleted, jobID, models.JobStatusOpen)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// CancelTx marks the job cancelled, conditional on it still being open.
func (r *JobRepo) CancelTx(ctx context.Context, tx pgx.Tx, jobID int64) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE jobs SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, models.JobStatusCancelled, jobID, models.JobStatusOpen)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *JobRepo) ListIDsByClient(ctx context.Context, clientID uuid.UUID) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM jobs WHERE client_id = $1 ORDER BY id ASC`, clientID)
}

func (r *JobRepo) ListIDsByWriter(ctx context.Context, writerID uuid.UUID) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM jobs WHERE writer_id = $1 ORDER BY id ASC`, writerID)
}

func (r *JobRepo) listIDs(ctx context.Context, query string, id uuid.UUID) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var jobID int64
		if err := rows.Scan(&jobID); err != nil {
			return nil, err
		}
		ids = append(ids, jobID)
	}
	return ids, rows.Err()
}
