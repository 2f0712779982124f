package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scriptorium/backend/internal/events"
	"github.com/scriptorium/backend/internal/marketplace"
	"github.com/scriptorium/backend/internal/models"
)

// SettingsStore reads and updates the single-row platform settings.
type SettingsStore interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	SetFeeTx(ctx context.Context, tx pgx.Tx, feeBasisPoints int64) error
}

// AccountReader resolves account balances for the custody and fee gauges.
type AccountReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// FeeSweeper drains accrued fees to the owner inside a transaction.
type FeeSweeper interface {
	SweepFees(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (int64, error)
}

// Service owns the owner-gated platform operations: fee updates and fee
// sweeps. The sweep only ever moves the platform account's accrued fees;
// escrowed principal sits in the escrow account and stays untouched.
type Service struct {
	db       marketplace.TxBeginner
	settings SettingsStore
	accounts AccountReader
	sweeper  FeeSweeper
	emitter  events.Emitter
}

func NewService(db marketplace.TxBeginner, settings SettingsStore, accounts AccountReader, sweeper FeeSweeper, emitter events.Emitter) *Service {
	return &Service{db: db, settings: settings, accounts: accounts, sweeper: sweeper, emitter: emitter}
}

// SetFee updates the platform fee. Owner only; the fee may never exceed
// MaxFeeBasisPoints (10%). A rejected update leaves the fee unchanged.
func (s *Service) SetFee(ctx context.Context, callerID uuid.UUID, feeBasisPoints int64) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if callerID != settings.OwnerAccountID {
		return fmt.Errorf("%w: only the owner may set the fee", marketplace.ErrUnauthorized)
	}
	if feeBasisPoints < 0 || feeBasisPoints > models.MaxFeeBasisPoints {
		return fmt.Errorf("%w: fee must be in [0,%d] basis points", marketplace.ErrOutOfRange, models.MaxFeeBasisPoints)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.settings.SetFeeTx(ctx, tx, feeBasisPoints); err != nil {
		return err
	}
	if err := s.emitter.EmitTx(ctx, tx, events.Event{
		Kind: events.KindFeeUpdated, ActorID: &callerID, AmountCents: &feeBasisPoints, OccurredAt: time.Now(),
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SweepFees transfers all accrued platform fees to the owner account and
// returns the amount swept. Owner only.
func (s *Service) SweepFees(ctx context.Context, callerID uuid.UUID) (int64, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	if callerID != settings.OwnerAccountID {
		return 0, fmt.Errorf("%w: only the owner may sweep fees", marketplace.ErrUnauthorized)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	amount, err := s.sweeper.SweepFees(ctx, tx, settings.OwnerAccountID)
	if err != nil {
		return 0, err
	}
	if amount > 0 {
		if err := s.emitter.EmitTx(ctx, tx, events.Event{
			Kind: events.KindFeesSwept, ActorID: &callerID, AmountCents: &amount, OccurredAt: time.Now(),
		}); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return amount, nil
}

// Fee returns the current fee in basis points.
func (s *Service) Fee(ctx context.Context) (int64, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	return settings.FeeBasisPoints, nil
}

// CustodyBalance returns the escrow account balance: the sum of all escrowed
// payments not yet released or refunded.
func (s *Service) CustodyBalance(ctx context.Context) (int64, error) {
	acc, err := s.accounts.GetByID(ctx, models.SystemEscrowAccountID)
	if err != nil {
		return 0, err
	}
	return acc.BalanceCents, nil
}

// AccruedFees returns the platform account balance: fees collected and not
// yet swept to the owner.
func (s *Service) AccruedFees(ctx context.Context) (int64, error) {
	acc, err := s.accounts.GetByID(ctx, models.SystemPlatformAccountID)
	if err != nil {
		return 0, err
	}
	return acc.BalanceCents, nil
}
