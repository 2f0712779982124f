package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scriptorium/backend/internal/models"
)

type HoldRepo struct {
	pool *pgxpool.Pool
}

func NewHoldRepo(pool *pgxpool.Pool) *HoldRepo {
	return &HoldRepo{pool: pool}
}

func (r *HoldRepo) CreateTx(ctx context.Context, tx pgx.Tx, h *models.EscrowHold) error {
	return tx.QueryRow(ctx, `
		INSERT INTO escrow_holds (job_id, client_id, amount_cents, status, hold_tx_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, h.JobID, h.ClientID, h.AmountCents, h.Status, h.HoldTxID).Scan(&h.CreatedAt)
}

// GetTx reads the hold under the row lock of the enclosing transaction.
func (r *HoldRepo) GetTx(ctx context.Context, tx pgx.Tx, jobID int64) (*models.EscrowHold, error) {
	var h models.EscrowHold
	err := tx.QueryRow(ctx, `
		SELECT job_id, client_id, amount_cents, status, hold_tx_id, release_tx_id, created_at
		FROM escrow_holds WHERE job_id = $1 FOR UPDATE
	`, jobID).Scan(&h.JobID, &h.ClientID, &h.AmountCents, &h.Status, &h.HoldTxID, &h.ReleaseTxID, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// MarkReleasedTx transitions held -> released. Returns false when the hold
// already left the held state, which is how a duplicate release becomes a no-op.
func (r *HoldRepo) MarkReleasedTx(ctx context.Context, tx pgx.Tx, jobID int64, releaseTxID uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE escrow_holds SET status = $1, release_tx_id = $2
		WHERE job_id = $3 AND status = $4
	`, models.HoldStatusReleased, releaseTxID, jobID, models.HoldStatusHeld)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkRefundedTx transitions held -> refunded with the same guard.
func (r *HoldRepo) MarkRefundedTx(ctx context.Context, tx pgx.Tx, jobID int64, refundTxID uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE escrow_holds SET status = $1, release_tx_id = $2
		WHERE job_id = $3 AND status = $4
	`, models.HoldStatusRefunded, refundTxID, jobID, models.HoldStatusHeld)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
