package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scriptorium/backend/internal/events"
	"github.com/scriptorium/backend/internal/marketplace"
	"github.com/scriptorium/backend/internal/models"
)

type fakeTx struct{}

func (fakeTx) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(context.Context) error          { return nil }
func (fakeTx) Rollback(context.Context) error        { return nil }
func (fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (fakeTx) Conn() *pgx.Conn                                         { return nil }

type fakeDB struct{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type memSettings struct {
	settings models.PlatformSettings
}

func (m *memSettings) Get(context.Context) (*models.PlatformSettings, error) {
	cp := m.settings
	return &cp, nil
}

func (m *memSettings) SetFeeTx(_ context.Context, _ pgx.Tx, feeBasisPoints int64) error {
	m.settings.FeeBasisPoints = feeBasisPoints
	return nil
}

type memAccounts struct {
	balances map[uuid.UUID]int64
}

func (m *memAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	bal, ok := m.balances[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &models.Account{ID: id, BalanceCents: bal}, nil
}

// fakeSweeper hands out its accrued amount once, like the real engine draining
// the platform account.
type fakeSweeper struct {
	accrued int64
	ownerID uuid.UUID
	calls   int
}

func (f *fakeSweeper) SweepFees(_ context.Context, _ pgx.Tx, ownerID uuid.UUID) (int64, error) {
	f.calls++
	f.ownerID = ownerID
	amount := f.accrued
	f.accrued = 0
	return amount, nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) EmitTx(_ context.Context, _ pgx.Tx, ev events.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func newTestService(accrued int64) (*Service, *memSettings, *fakeSweeper, *captureEmitter, uuid.UUID) {
	owner := uuid.New()
	settings := &memSettings{settings: models.PlatformSettings{
		FeeBasisPoints: models.DefaultFeeBasisPoints,
		OwnerAccountID: owner,
	}}
	sweeper := &fakeSweeper{accrued: accrued}
	emitter := &captureEmitter{}
	accounts := &memAccounts{balances: map[uuid.UUID]int64{
		models.SystemEscrowAccountID:   1800,
		models.SystemPlatformAccountID: accrued,
	}}
	return NewService(fakeDB{}, settings, accounts, sweeper, emitter), settings, sweeper, emitter, owner
}

func TestSetFee(t *testing.T) {
	svc, settings, _, emitter, owner := newTestService(0)
	ctx := context.Background()

	if err := svc.SetFee(ctx, owner, 500); err != nil {
		t.Fatalf("SetFee: %v", err)
	}
	if got := settings.settings.FeeBasisPoints; got != 500 {
		t.Errorf("fee: got %d, want 500", got)
	}
	if fee, _ := svc.Fee(ctx); fee != 500 {
		t.Errorf("Fee: got %d, want 500", fee)
	}
	if len(emitter.events) != 1 || emitter.events[0].Kind != events.KindFeeUpdated {
		t.Errorf("expected one fee.updated event, got %v", emitter.events)
	}

	// Zero disables the fee entirely.
	if err := svc.SetFee(ctx, owner, 0); err != nil {
		t.Fatalf("SetFee(0): %v", err)
	}
}

func TestSetFeeRejections(t *testing.T) {
	svc, settings, _, _, owner := newTestService(0)
	ctx := context.Background()

	if err := svc.SetFee(ctx, uuid.New(), 300); !errors.Is(err, marketplace.ErrUnauthorized) {
		t.Errorf("non-owner: got %v, want ErrUnauthorized", err)
	}
	if err := svc.SetFee(ctx, owner, models.MaxFeeBasisPoints+1); !errors.Is(err, marketplace.ErrOutOfRange) {
		t.Errorf("fee above cap: got %v, want ErrOutOfRange", err)
	}
	if err := svc.SetFee(ctx, owner, -1); !errors.Is(err, marketplace.ErrOutOfRange) {
		t.Errorf("negative fee: got %v, want ErrOutOfRange", err)
	}

	if got := settings.settings.FeeBasisPoints; got != models.DefaultFeeBasisPoints {
		t.Errorf("rejected updates must leave the fee unchanged: got %d", got)
	}
}

func TestSweepFees(t *testing.T) {
	svc, _, sweeper, emitter, owner := newTestService(75)
	ctx := context.Background()

	amount, err := svc.SweepFees(ctx, owner)
	if err != nil {
		t.Fatalf("SweepFees: %v", err)
	}
	if amount != 75 {
		t.Errorf("swept: got %d, want 75", amount)
	}
	if sweeper.ownerID != owner {
		t.Error("sweep must credit the owner account")
	}
	if len(emitter.events) != 1 || emitter.events[0].Kind != events.KindFeesSwept {
		t.Errorf("expected one fees.swept event, got %v", emitter.events)
	}

	// Nothing left: second sweep reports zero and stays silent.
	amount, err = svc.SweepFees(ctx, owner)
	if err != nil || amount != 0 {
		t.Errorf("second sweep: got (%d, %v), want (0, nil)", amount, err)
	}
	if len(emitter.events) != 1 {
		t.Errorf("zero sweep must not emit, got %d events", len(emitter.events))
	}
}

func TestSweepFeesNonOwner(t *testing.T) {
	svc, _, sweeper, _, _ := newTestService(75)

	if _, err := svc.SweepFees(context.Background(), uuid.New()); !errors.Is(err, marketplace.ErrUnauthorized) {
		t.Errorf("non-owner sweep: got %v, want ErrUnauthorized", err)
	}
	if sweeper.calls != 0 {
		t.Error("rejected sweep must not touch the engine")
	}
}

func TestBalanceGauges(t *testing.T) {
	svc, _, _, _, _ := newTestService(75)
	ctx := context.Background()

	if got, err := svc.CustodyBalance(ctx); err != nil || got != 1800 {
		t.Errorf("CustodyBalance: got (%d, %v), want (1800, nil)", got, err)
	}
	if got, err := svc.AccruedFees(ctx); err != nil || got != 75 {
		t.Errorf("AccruedFees: got (%d, %v), want (75, nil)", got, err)
	}
}
