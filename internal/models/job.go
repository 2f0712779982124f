package models

import (
	"time"

	"github.com/google/uuid"
)

// Job status enums. A job is created open and moves to completed (via a single
// claim-and-submit call) or to cancelled; both are terminal. in_progress exists
// only inside the claim transaction and is never visible to another caller.
// disputed is declared for forward compatibility with arbitration; no operation
// produces it.
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusDisputed   = "disputed"
	JobStatusCancelled  = "cancelled"
)

// Job is one writing engagement. IDs are assigned from a monotonic sequence.
// client_id, payment_cents and deadline are immutable after creation; writer_id
// and deliverable are immutable once set.
type Job struct {
	ID           int64      `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	WriterID     *uuid.UUID `json:"writer_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PaymentCents int64      `json:"payment_cents"`
	Deadline     time.Time  `json:"deadline"`
	Status       string     `json:"status"`
	Deliverable  string     `json:"deliverable,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
