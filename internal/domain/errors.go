package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("amount must have at most two decimal places")
	ErrBelowMinimum      = errors.New("amount below minimum")
	ErrAboveMaximum      = errors.New("amount above maximum")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLoanLimitExceeded = errors.New("loan limit exceeded")
	ErrSelfTransfer      = errors.New("cannot transfer to same account")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrReceiverNotFound  = errors.New("receiver account not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrLoanNotFound      = errors.New("loan not found")
	ErrLoanNotPending    = errors.New("loan is not pending approval")
	ErrLoanNotApproved   = errors.New("loan is not approved")
	ErrLoanAlreadyPaid   = errors.New("loan already paid")
	ErrConflict          = errors.New("concurrent modification conflict")
	ErrInvalidDateRange  = errors.New("start date is after end date")
)

// LimitError is a rule rejection that carries the bound it was checked against.
type LimitError struct {
	Err   error
	Limit decimal.Decimal
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s (limit %s)", e.Err, e.Limit.StringFixed(2))
}

func (e *LimitError) Unwrap() error { return e.Err }
