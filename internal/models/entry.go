package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry_type enums. Every fund movement writes one entry per affected
// account with a signed amount (credit positive, debit negative), so
// SUM(amount_cents) per account reconciles against its balance.
const (
	EntryEscrowLock    = "escrow_lock"    // client -> escrow account
	EntryEscrowRelease = "escrow_release" // escrow account -> writer
	EntryPlatformFee   = "platform_fee"   // escrow account -> platform account
	EntryRefund        = "refund"         // escrow account -> client
	EntryFeeSweep      = "fee_sweep"      // platform account -> owner
	EntryDeposit       = "deposit"        // external top-up -> client
)

type LedgerEntry struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	JobID        *int64    `json:"job_id,omitempty"`
	EntryType    string    `json:"entry_type"`
	AmountCents  int64     `json:"amount_cents"`
	BalanceAfter *int64    `json:"balance_after,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
