package models

import (
	"time"

	"github.com/google/uuid"
)

// System accounts, seeded by db/schema.sql. The escrow account holds every
// payment that is locked but not yet released or refunded; its balance is the
// platform's custody balance. The platform account accumulates fees only, so a
// sweep can never touch escrowed principal.
var (
	SystemEscrowAccountID   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	SystemPlatformAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

type Account struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name"`
	PasswordHash    string    `json:"-"`
	BalanceCents    int64     `json:"balance_cents"`
	IsSystemAccount bool      `json:"is_system_account"`
	IsOwner         bool      `json:"is_owner"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
