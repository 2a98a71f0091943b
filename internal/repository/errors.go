package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
	pqCheckViolation       = "23514"

	balanceCheckConstraint = "accounts_balance_check"
)

// classify maps driver errors that callers branch on to domain sentinels.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqSerializationFailure, pqDeadlockDetected, pqUniqueViolation:
		return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrConflict)
	case pqCheckViolation:
		if pqErr.Constraint == balanceCheckConstraint {
			return fmt.Errorf("%s: %w", pqErr.Message, domain.ErrInsufficientFunds)
		}
	}
	return err
}
