package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scriptorium/backend/internal/models"
)

type ReputationRepo struct {
	pool *pgxpool.Pool
}

func NewReputationRepo(pool *pgxpool.Pool) *ReputationRepo {
	return &ReputationRepo{pool: pool}
}

// AddRatingTx upserts the writer's aggregate: sum += rating, count += 1.
func (r *ReputationRepo) AddRatingTx(ctx context.Context, tx pgx.Tx, writerID uuid.UUID, rating int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reputation (writer_id, rating_sum, rating_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (writer_id)
		DO UPDATE SET rating_sum = reputation.rating_sum + $2, rating_count = reputation.rating_count + 1
	`, writerID, rating)
	return err
}

// Get returns the writer's aggregate, or pgx.ErrNoRows for an unrated writer.
func (r *ReputationRepo) Get(ctx context.Context, writerID uuid.UUID) (*models.ReputationEntry, error) {
	var rep models.ReputationEntry
	err := r.pool.QueryRow(ctx, `
		SELECT writer_id, rating_sum, rating_count FROM reputation WHERE writer_id = $1
	`, writerID).Scan(&rep.WriterID, &rep.RatingSum, &rep.RatingCount)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
