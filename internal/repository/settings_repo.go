package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scriptorium/backend/internal/models"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context) (*models.PlatformSettings, error) {
	var s models.PlatformSettings
	err := r.pool.QueryRow(ctx, `
		SELECT fee_basis_points, owner_account_id FROM platform_settings
	`).Scan(&s.FeeBasisPoints, &s.OwnerAccountID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetTx reads settings inside the caller's transaction so a release sees a
// fee rate consistent with the rest of the operation.
func (r *SettingsRepo) GetTx(ctx context.Context, tx pgx.Tx) (*models.PlatformSettings, error) {
	var s models.PlatformSettings
	err := tx.QueryRow(ctx, `
		SELECT fee_basis_points, owner_account_id FROM platform_settings
	`).Scan(&s.FeeBasisPoints, &s.OwnerAccountID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepo) SetFeeTx(ctx context.Context, tx pgx.Tx, feeBasisPoints int64) error {
	_, err := tx.Exec(ctx, `UPDATE platform_settings SET fee_basis_points = $1`, feeBasisPoints)
	return err
}
