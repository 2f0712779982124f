package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scriptorium/backend/internal/marketplace"
	"github.com/scriptorium/backend/internal/models"
)

// AccountStore is the account access the service needs.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	CreditTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (int64, error)
}

// EntryStore appends and lists journal entries.
type EntryStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error)
}

// Service exposes account self-service: balance, journal, top-up. The funding
// source behind a deposit (card, bank, faucet) is an external collaborator;
// this is its hook into the ledger.
type Service struct {
	db       marketplace.TxBeginner
	accounts AccountStore
	entries  EntryStore
}

func NewService(db marketplace.TxBeginner, accounts AccountStore, entries EntryStore) *Service {
	return &Service{db: db, accounts: accounts, entries: entries}
}

// Get returns the account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// Ledger returns the account's journal entries, newest first.
func (s *Service) Ledger(ctx context.Context, id uuid.UUID) ([]*models.LedgerEntry, error) {
	return s.entries.ListByAccountID(ctx, id)
}

// Deposit credits amountCents to the account and records a deposit entry.
func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, fmt.Errorf("%w: deposit must be > 0", marketplace.ErrOutOfRange)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	newBalance, err := s.accounts.CreditTx(ctx, tx, id, amountCents)
	if err != nil {
		return 0, err
	}
	if err := s.entries.CreateTx(ctx, tx, &models.LedgerEntry{
		ID: uuid.New(), AccountID: id,
		EntryType: models.EntryDeposit, AmountCents: amountCents, BalanceAfter: &newBalance,
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}
