package marketplace

import (
	"errors"

	"github.com/scriptorium/backend/internal/escrow"
)

// Every failure is a precondition violation reported synchronously; a rejected
// operation leaves no state change and moves no funds.
var (
	ErrNotFound       = errors.New("job not found")
	ErrWrongState     = errors.New("job is in the wrong state")
	ErrUnauthorized   = errors.New("caller is not authorized for this operation")
	ErrOutOfRange     = errors.New("value out of range")
	ErrEmptyField     = errors.New("required field is empty")
	ErrDeadlinePassed = errors.New("deadline has passed")
	ErrTransferFailed = errors.New("fund transfer failed")
)

// ErrInsufficientFunds is surfaced unchanged from the escrow engine.
var ErrInsufficientFunds = escrow.ErrInsufficientFunds
