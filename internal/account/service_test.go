package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

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

type memAccounts struct {
	accounts map[uuid.UUID]*models.Account
}

func (m *memAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) CreditTx(_ context.Context, _ pgx.Tx, id uuid.UUID, amountCents int64) (int64, error) {
	a, ok := m.accounts[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	a.BalanceCents += amountCents
	return a.BalanceCents, nil
}

type memEntries struct {
	entries []*models.LedgerEntry
}

func (m *memEntries) CreateTx(_ context.Context, _ pgx.Tx, e *models.LedgerEntry) error {
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memEntries) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error) {
	var out []*models.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func TestDeposit(t *testing.T) {
	id := uuid.New()
	accounts := &memAccounts{accounts: map[uuid.UUID]*models.Account{
		id: {ID: id, BalanceCents: 100},
	}}
	entries := &memEntries{}
	svc := NewService(fakeDB{}, accounts, entries)

	balance, err := svc.Deposit(context.Background(), id, 400)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if balance != 500 {
		t.Errorf("balance: got %d, want 500", balance)
	}

	if len(entries.entries) != 1 {
		t.Fatalf("journal entries: got %d, want 1", len(entries.entries))
	}
	e := entries.entries[0]
	if e.EntryType != models.EntryDeposit || e.AmountCents != 400 {
		t.Errorf("entry: got (%s, %d), want (deposit, 400)", e.EntryType, e.AmountCents)
	}
	if e.BalanceAfter == nil || *e.BalanceAfter != 500 {
		t.Error("entry must carry the post-deposit balance")
	}
}

func TestDepositRejectsNonPositive(t *testing.T) {
	id := uuid.New()
	accounts := &memAccounts{accounts: map[uuid.UUID]*models.Account{id: {ID: id}}}
	entries := &memEntries{}
	svc := NewService(fakeDB{}, accounts, entries)

	for _, amount := range []int64{0, -50} {
		if _, err := svc.Deposit(context.Background(), id, amount); !errors.Is(err, marketplace.ErrOutOfRange) {
			t.Errorf("Deposit(%d): got %v, want ErrOutOfRange", amount, err)
		}
	}
	if got := accounts.accounts[id].BalanceCents; got != 0 {
		t.Errorf("balance after rejected deposits: got %d, want 0", got)
	}
	if len(entries.entries) != 0 {
		t.Errorf("rejected deposits must not write journal entries, got %d", len(entries.entries))
	}
}

func TestLedgerNewestFirst(t *testing.T) {
	id := uuid.New()
	accounts := &memAccounts{accounts: map[uuid.UUID]*models.Account{id: {ID: id}}}
	entries := &memEntries{}
	svc := NewService(fakeDB{}, accounts, entries)

	for _, amount := range []int64{100, 200, 300} {
		if _, err := svc.Deposit(context.Background(), id, amount); err != nil {
			t.Fatalf("Deposit(%d): %v", amount, err)
		}
	}

	list, err := svc.Ledger(context.Background(), id)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("entries: got %d, want 3", len(list))
	}
	if list[0].AmountCents != 300 || list[2].AmountCents != 100 {
		t.Errorf("entries must be newest first, got %d..%d", list[0].AmountCents, list[2].AmountCents)
	}
}
