package models

import (
	"github.com/google/uuid"
)

// DefaultFeeBasisPoints is the platform fee applied at release time: 2.5%.
// MaxFeeBasisPoints caps what the owner may set (10%).
const (
	DefaultFeeBasisPoints = 250
	MaxFeeBasisPoints     = 1000
)

// PlatformSettings is the single-row settings table: the current fee rate and
// the owner account, set once at bootstrap.
type PlatformSettings struct {
	FeeBasisPoints int64     `json:"fee_basis_points"`
	OwnerAccountID uuid.UUID `json:"owner_account_id"`
}
