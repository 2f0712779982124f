package escrow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scriptorium/backend/internal/models"
)

// ErrInsufficientFunds is returned when the client balance is too low for the
// requested lock.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrHoldNotFound is returned when a job has no escrow hold in any state.
var ErrHoldNotFound = errors.New("escrow hold not found")

// AccountStore is the minimal account interface escrow needs. DebitTx must be
// conditional on sufficient balance and return ErrInsufficientFunds otherwise.
type AccountStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	DebitTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (newBalance int64, err error)
	CreditTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (newBalance int64, err error)
}

// EntryStore appends journal entries.
type EntryStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// HoldStore tracks per-job escrow holds. MarkReleasedTx and MarkRefundedTx are
// conditional held-state transitions: they return false without error when the
// hold has already left the held state.
type HoldStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, h *models.EscrowHold) error
	GetTx(ctx context.Context, tx pgx.Tx, jobID int64) (*models.EscrowHold, error)
	MarkReleasedTx(ctx context.Context, tx pgx.Tx, jobID int64, releaseTxID uuid.UUID) (bool, error)
	MarkRefundedTx(ctx context.Context, tx pgx.Tx, jobID int64, refundTxID uuid.UUID) (bool, error)
}

// Service moves funds between client, escrow, writer, platform and owner
// accounts with double-entry journal records. Every method runs inside the
// caller's transaction: the enclosing lifecycle operation commits or rolls back
// the fund movement together with the job state change.
type Service struct {
	Accounts AccountStore
	Entries  EntryStore
	Holds    HoldStore
}

// NewService returns a new escrow Service.
func NewService(accounts AccountStore, entries EntryStore, holds HoldStore) *Service {
	return &Service{Accounts: accounts, Entries: entries, Holds: holds}
}

// Lock deducts amountCents from the client, credits the escrow account, and
// records a held hold for the job. Fails with ErrInsufficientFunds (no state
// change) when the client balance is too low.
func (s *Service) Lock(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, jobID int64, amountCents int64) error {
	if err := s.lockAccounts(ctx, tx, clientID, models.SystemEscrowAccountID); err != nil {
		return err
	}
	newBalance, err := s.Accounts.DebitTx(ctx, tx, clientID, amountCents)
	if err != nil {
		return err
	}
	if _, err := s.Accounts.CreditTx(ctx, tx, models.SystemEscrowAccountID, amountCents); err != nil {
		return fmt.Errorf("credit escrow account: %w", err)
	}
	holdTxID := uuid.New()
	if err := s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID: holdTxID, AccountID: clientID, JobID: &jobID,
		EntryType: models.EntryEscrowLock, AmountCents: -amountCents, BalanceAfter: int64Ptr(newBalance),
	}); err != nil {
		return err
	}
	return s.Holds.CreateTx(ctx, tx, &models.EscrowHold{
		JobID:       jobID,
		ClientID:    clientID,
		AmountCents: amountCents,
		Status:      models.HoldStatusHeld,
		HoldTxID:    holdTxID,
	})
}

// Release pays out the job's held amount: the writer receives the payment
// minus the platform fee (feeBasisPoints/10000, truncated), the platform
// account receives the fee, and the escrow account is debited the full amount.
// Returns (false, nil) when the hold is no longer held, which makes a second
// release attempt for the same job a no-op.
func (s *Service) Release(ctx context.Context, tx pgx.Tx, jobID int64, writerID uuid.UUID, feeBasisPoints int64) (bool, error) {
	hold, err := s.Holds.GetTx(ctx, tx, jobID)
	if err != nil {
		return false, err
	}
	if hold.Status != models.HoldStatusHeld {
		return false, nil
	}

	feeCents := hold.AmountCents * feeBasisPoints / 10000
	writerCents := hold.AmountCents - feeCents

	if err := s.lockAccounts(ctx, tx, models.SystemEscrowAccountID, writerID, models.SystemPlatformAccountID); err != nil {
		return false, err
	}

	releaseTxID := uuid.New()
	ok, err := s.Holds.MarkReleasedTx(ctx, tx, jobID, releaseTxID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if _, err := s.Accounts.DebitTx(ctx, tx, models.SystemEscrowAccountID, hold.AmountCents); err != nil {
		return false, fmt.Errorf("debit escrow account: %w", err)
	}
	newWriter, err := s.Accounts.CreditTx(ctx, tx, writerID, writerCents)
	if err != nil {
		return false, fmt.Errorf("credit writer: %w", err)
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID: releaseTxID, AccountID: writerID, JobID: &jobID,
		EntryType: models.EntryEscrowRelease, AmountCents: writerCents, BalanceAfter: int64Ptr(newWriter),
	}); err != nil {
		return false, err
	}
	if feeCents > 0 {
		newPlatform, err := s.Accounts.CreditTx(ctx, tx, models.SystemPlatformAccountID, feeCents)
		if err != nil {
			return false, fmt.Errorf("credit platform account: %w", err)
		}
		if err := s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
			ID: uuid.New(), AccountID: models.SystemPlatformAccountID, JobID: &jobID,
			EntryType: models.EntryPlatformFee, AmountCents: feeCents, BalanceAfter: int64Ptr(newPlatform),
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Refund returns the held amount in full to the client and marks the hold
// refunded. Fails when the hold is not held.
func (s *Service) Refund(ctx context.Context, tx pgx.Tx, jobID int64) error {
	hold, err := s.Holds.GetTx(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if hold.Status != models.HoldStatusHeld {
		return ErrHoldNotFound
	}

	if err := s.lockAccounts(ctx, tx, models.SystemEscrowAccountID, hold.ClientID); err != nil {
		return err
	}

	refundTxID := uuid.New()
	ok, err := s.Holds.MarkRefundedTx(ctx, tx, jobID, refundTxID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHoldNotFound
	}

	if _, err := s.Accounts.DebitTx(ctx, tx, models.SystemEscrowAccountID, hold.AmountCents); err != nil {
		return fmt.Errorf("debit escrow account: %w", err)
	}
	newClient, err := s.Accounts.CreditTx(ctx, tx, hold.ClientID, hold.AmountCents)
	if err != nil {
		return fmt.Errorf("credit client: %w", err)
	}
	return s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID: refundTxID, AccountID: hold.ClientID, JobID: &jobID,
		EntryType: models.EntryRefund, AmountCents: hold.AmountCents, BalanceAfter: int64Ptr(newClient),
	})
}

// SweepFees drains the platform account's accrued fees to the owner account
// and returns the amount swept. Escrowed principal lives in the separate
// escrow account and is never touched by a sweep.
func (s *Service) SweepFees(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (int64, error) {
	if err := s.lockAccounts(ctx, tx, models.SystemPlatformAccountID, ownerID); err != nil {
		return 0, err
	}
	platform, err := s.Accounts.GetByIDForUpdate(ctx, tx, models.SystemPlatformAccountID)
	if err != nil {
		return 0, err
	}
	amount := platform.BalanceCents
	if amount <= 0 {
		return 0, nil
	}
	newPlatform, err := s.Accounts.DebitTx(ctx, tx, models.SystemPlatformAccountID, amount)
	if err != nil {
		return 0, err
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID: uuid.New(), AccountID: models.SystemPlatformAccountID,
		EntryType: models.EntryFeeSweep, AmountCents: -amount, BalanceAfter: int64Ptr(newPlatform),
	}); err != nil {
		return 0, err
	}
	newOwner, err := s.Accounts.CreditTx(ctx, tx, ownerID, amount)
	if err != nil {
		return 0, fmt.Errorf("credit owner: %w", err)
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID: uuid.New(), AccountID: ownerID,
		EntryType: models.EntryFeeSweep, AmountCents: amount, BalanceAfter: int64Ptr(newOwner),
	}); err != nil {
		return 0, err
	}
	return amount, nil
}

// lockAccounts row-locks the given accounts in deterministic UUID order to
// avoid deadlock between concurrent transfers.
func (s *Service) lockAccounts(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) error {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	for _, id := range sorted {
		if _, err := s.Accounts.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

func int64Ptr(n int64) *int64 { return &n }
