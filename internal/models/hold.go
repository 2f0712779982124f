package models

import (
	"time"

	"github.com/google/uuid"
)

// Escrow hold status enums. held -> released and held -> refunded are the only
// legal transitions; both are guarded by a conditional update so a second
// release attempt for the same job is a detectable no-op.
const (
	HoldStatusHeld     = "held"
	HoldStatusReleased = "released"
	HoldStatusRefunded = "refunded"
)

// EscrowHold tracks the escrowed payment for one job.
type EscrowHold struct {
	JobID       int64      `json:"job_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	HoldTxID    uuid.UUID  `json:"hold_tx_id"`
	ReleaseTxID *uuid.UUID `json:"release_tx_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
