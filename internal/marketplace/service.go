package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scriptorium/backend/internal/events"
	"github.com/scriptorium/backend/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// JobStore is the job persistence interface. CompleteTx and CancelTx are
// conditional on status = open and report whether a row transitioned, which is
// what makes first-committer-wins hold for concurrent claims.
type JobStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, j *models.Job) error
	GetByID(ctx context.Context, jobID int64) (*models.Job, error)
	GetByIDForUpdateTx(ctx context.Context, tx pgx.Tx, jobID int64) (*models.Job, error)
	CompleteTx(ctx context.Context, tx pgx.Tx, jobID int64, writerID uuid.UUID, deliverable string) (bool, error)
	CancelTx(ctx context.Context, tx pgx.Tx, jobID int64) (bool, error)
	ListIDsByClient(ctx context.Context, clientID uuid.UUID) ([]int64, error)
	ListIDsByWriter(ctx context.Context, writerID uuid.UUID) ([]int64, error)
}

// EscrowEngine is the subset of the escrow service the lifecycle needs.
type EscrowEngine interface {
	Lock(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, jobID int64, amountCents int64) error
	Release(ctx context.Context, tx pgx.Tx, jobID int64, writerID uuid.UUID, feeBasisPoints int64) (bool, error)
	Refund(ctx context.Context, tx pgx.Tx, jobID int64) error
}

// ReputationStore tracks per-writer rating aggregates.
type ReputationStore interface {
	AddRatingTx(ctx context.Context, tx pgx.Tx, writerID uuid.UUID, rating int) error
	Get(ctx context.Context, writerID uuid.UUID) (*models.ReputationEntry, error)
}

// SettingsStore reads platform settings inside the operation's transaction.
type SettingsStore interface {
	GetTx(ctx context.Context, tx pgx.Tx) (*models.PlatformSettings, error)
}

// Service is the job lifecycle state machine. Every operation runs as one
// transaction: the status transition, any fund movement and the emitted
// signals commit together or not at all.
type Service struct {
	db         TxBeginner
	jobs       JobStore
	escrow     EscrowEngine
	reputation ReputationStore
	settings   SettingsStore
	emitter    events.Emitter
}

// NewService creates a marketplace service.
func NewService(db TxBeginner, jobs JobStore, esc EscrowEngine, reputation ReputationStore, settings SettingsStore, emitter events.Emitter) *Service {
	return &Service{db: db, jobs: jobs, escrow: esc, reputation: reputation, settings: settings, emitter: emitter}
}

// CreateJob opens a new job and escrows the payment from the caller in the
// same transaction; there is no two-step funding. Returns the new job id.
func (s *Service) CreateJob(ctx context.Context, callerID uuid.UUID, title, description string, deadline time.Time, paymentCents int64) (int64, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return 0, ErrEmptyField
	}
	if paymentCents <= 0 {
		return 0, fmt.Errorf("%w: payment must be > 0", ErrOutOfRange)
	}
	if !deadline.After(time.Now()) {
		return 0, fmt.Errorf("%w: deadline must be in the future", ErrDeadlinePassed)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	job := &models.Job{
		ClientID:     callerID,
		Title:        title,
		Description:  description,
		PaymentCents: paymentCents,
		Deadline:     deadline,
		Status:       models.JobStatusOpen,
	}
	if err := s.jobs.CreateTx(ctx, tx, job); err != nil {
		return 0, err
	}
	if err := s.escrow.Lock(ctx, tx, callerID, job.ID, paymentCents); err != nil {
		return 0, err
	}
	if err := s.emitter.EmitTx(ctx, tx, events.Event{
		Kind: events.KindJobCreated, JobID: &job.ID, ClientID: &callerID, ActorID: &callerID,
		AmountCents: &paymentCents, OccurredAt: time.Now(),
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return job.ID, nil
}

// ClaimAndSubmit claims an open job for the caller, records the deliverable,
// marks the job completed and releases the escrowed payment, all as one
// transaction. The in_progress intermediate is never observable by another
// caller. For a given job only the first committed claim succeeds; later
// attempts fail with ErrWrongState.
func (s *Service) ClaimAndSubmit(ctx context.Context, callerID uuid.UUID, jobID int64, deliverable string) error {
	if strings.TrimSpace(deliverable) == "" {
		return fmt.Errorf("%w: deliverable", ErrEmptyField)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.GetByIDForUpdateTx(ctx, tx, jobID)
	if err != nil {
		return mapNoRows(err)
	}
	if job.Status != models.JobStatusOpen {
		return ErrWrongState
	}
	if time.Now().After(job.Deadline) {
		return ErrDeadlinePassed
	}
	if callerID == job.ClientID {
		return fmt.Errorf("%w: a client may not claim their own job", ErrUnauthorized)
	}

	ok, err := s.jobs.CompleteTx(ctx, tx, jobID, callerID, deliverable)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongState
	}

	settings, err := s.settings.GetTx(ctx, tx)
	if err != nil {
		return err
	}
	released, err := s.escrow.Release(ctx, tx, jobID, callerID, settings.FeeBasisPoints)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !released {
		// A completed job must have exactly one release; a missing held hold
		// here means the ledger is inconsistent, so refuse to commit.
		return fmt.Errorf("%w: escrow hold for job %d is not held", ErrTransferFailed, jobID)
	}

	now := time.Now()
	for _, kind := range []events.Kind{events.KindJobClaimed, events.KindJobCompleted, events.KindPaymentReleased} {
		if err := s.emitter.EmitTx(ctx, tx, events.Event{
			Kind: kind, JobID: &jobID, ClientID: &job.ClientID, WriterID: &callerID, ActorID: &callerID,
			AmountCents: &job.PaymentCents, OccurredAt: now,
		}); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// RateAndConfirm records the client's rating for the writer of a completed
// job. The payment release is re-invoked here but the escrow hold has already
// left the held state, so the second invocation is a no-op: total payout per
// job never exceeds the payment.
func (s *Service) RateAndConfirm(ctx context.Context, callerID uuid.UUID, jobID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be in [1,5]", ErrOutOfRange)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.GetByIDForUpdateTx(ctx, tx, jobID)
	if err != nil {
		return mapNoRows(err)
	}
	if callerID != job.ClientID {
		return fmt.Errorf("%w: only the client may rate", ErrUnauthorized)
	}
	if job.Status != models.JobStatusCompleted {
		return ErrWrongState
	}
	if job.WriterID == nil {
		return ErrWrongState
	}

	settings, err := s.settings.GetTx(ctx, tx)
	if err != nil {
		return err
	}
	released, err := s.escrow.Release(ctx, tx, jobID, *job.WriterID, settings.FeeBasisPoints)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := s.reputation.AddRatingTx(ctx, tx, *job.WriterID, rating); err != nil {
		return err
	}

	now := time.Now()
	if released {
		if err := s.emitter.EmitTx(ctx, tx, events.Event{
			Kind: events.KindPaymentReleased, JobID: &jobID, ClientID: &job.ClientID, WriterID: job.WriterID,
			ActorID: &callerID, AmountCents: &job.PaymentCents, OccurredAt: now,
		}); err != nil {
			return err
		}
	}
	if err := s.emitter.EmitTx(ctx, tx, events.Event{
		Kind: events.KindWriterRated, JobID: &jobID, ClientID: &job.ClientID, WriterID: job.WriterID,
		ActorID: &callerID, Rating: &rating, OccurredAt: now,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CancelJob cancels an open, unclaimed job and refunds the full payment to
// the client. A job with an assigned writer can no longer be cancelled.
func (s *Service) CancelJob(ctx context.Context, callerID uuid.UUID, jobID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.GetByIDForUpdateTx(ctx, tx, jobID)
	if err != nil {
		return mapNoRows(err)
	}
	if callerID != job.ClientID {
		return fmt.Errorf("%w: only the client may cancel", ErrUnauthorized)
	}
	if job.Status != models.JobStatusOpen {
		return ErrWrongState
	}

	ok, err := s.jobs.CancelTx(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongState
	}
	if err := s.escrow.Refund(ctx, tx, jobID); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := s.emitter.EmitTx(ctx, tx, events.Event{
		Kind: events.KindJobCancelled, JobID: &jobID, ClientID: &job.ClientID, ActorID: &callerID,
		AmountCents: &job.PaymentCents, OccurredAt: time.Now(),
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetJob returns the job or ErrNotFound.
func (s *Service) GetJob(ctx context.Context, jobID int64) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return job, nil
}

// ClientJobs returns the ids of jobs the client created, in creation order.
func (s *Service) ClientJobs(ctx context.Context, clientID uuid.UUID) ([]int64, error) {
	return s.jobs.ListIDsByClient(ctx, clientID)
}

// WriterJobs returns the ids of jobs the writer claimed, in claim order.
func (s *Service) WriterJobs(ctx context.Context, writerID uuid.UUID) ([]int64, error) {
	return s.jobs.ListIDsByWriter(ctx, writerID)
}

// WriterRating returns the writer's average rating scaled by 100, or 0 for an
// unrated writer.
func (s *Service) WriterRating(ctx context.Context, writerID uuid.UUID) (int64, error) {
	rep, err := s.reputation.Get(ctx, writerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return rep.Average(), nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
