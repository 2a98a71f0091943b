package engine

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// ApprovedUnpaidCount is the number of the account's loans that were approved
// and have no repayment yet.
func (e *Engine) ApprovedUnpaidCount(ctx context.Context, number string) (int, error) {
	loans, err := e.ListLoans(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("ApprovedUnpaidCount: %w", err)
	}
	return domain.CountApprovedUnpaid(loans), nil
}

func (e *Engine) ListLoans(ctx context.Context, number string) ([]domain.Loan, error) {
	if _, err := e.ResolveAccountByNumber(ctx, number); err != nil {
		return nil, fmt.Errorf("ListLoans: %w", err)
	}
	entries, err := e.store.LoanEntries(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("ListLoans: %w", err)
	}
	return domain.DeriveLoans(entries), nil
}
