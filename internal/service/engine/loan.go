package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
	"github.com/josh-kwaku/bank-ledger/internal/service/rules"
)

type LoanRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
}

type ApproveLoanRequest struct {
	LoanID int64
}

type RepayLoanRequest struct {
	AccountNumber string
	LoanID        int64
}

func (e *Engine) RequestLoan(ctx context.Context, req LoanRequest) (*domain.Transaction, error) {
	if err := rules.Amount(req.Amount); err != nil {
		return nil, fmt.Errorf("RequestLoan: %w", err)
	}

	var (
		acct  *domain.Account
		entry *domain.Transaction
	)
	err := e.withRetry(ctx, "RequestLoan", func() error {
		var err error
		acct, entry, err = e.executeLoanRequest(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("RequestLoan: %w", err)
	}

	logging.FromContext(ctx).Info("loan requested",
		"loan_id", entry.ID,
		"account", acct.Number,
		"amount", req.Amount,
	)

	e.notify(ctx, domain.Notification{
		UserRef:  acct.OwnerRef,
		Amount:   req.Amount,
		Subject:  "Loan Request",
		Template: domain.TemplateLoanRequest,
	})

	return entry, nil
}

func (e *Engine) executeLoanRequest(ctx context.Context, req LoanRequest) (*domain.Account, *domain.Transaction, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanRequest: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := lockAccount(ctx, tx, req.AccountNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanRequest: %w", err)
	}

	loans, err := loansInTx(ctx, tx, acct.Number)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanRequest: %w", err)
	}

	if err := rules.LoanRequest(req.Amount, domain.CountApprovedUnpaid(loans)); err != nil {
		return nil, nil, fmt.Errorf("executeLoanRequest: %w", err)
	}

	entry := &domain.Transaction{Kind: domain.KindLoan, Amount: req.Amount}
	if err := e.record(ctx, tx, acct, decimal.Zero, entry); err != nil {
		return nil, nil, fmt.Errorf("executeLoanRequest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeLoanRequest: commit: %w", err)
	}
	return acct, entry, nil
}

// ApproveLoan is the administrative pending -> approved transition. The loan
// amount is credited to the account together with the approval entry.
func (e *Engine) ApproveLoan(ctx context.Context, req ApproveLoanRequest) (*domain.Transaction, error) {
	request, err := e.loanRequestEntry(ctx, req.LoanID)
	if err != nil {
		return nil, fmt.Errorf("ApproveLoan: %w", err)
	}

	var (
		acct  *domain.Account
		entry *domain.Transaction
	)
	err = e.withRetry(ctx, "ApproveLoan", func() error {
		var err error
		acct, entry, err = e.executeLoanApproval(ctx, request.AccountNumber, req.LoanID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ApproveLoan: %w", err)
	}

	logging.FromContext(ctx).Info("loan approved",
		"loan_id", req.LoanID,
		"transaction_id", entry.ID,
		"account", acct.Number,
		"amount", entry.Amount,
		"balance_after", entry.BalanceAfter,
	)

	e.notify(ctx, domain.Notification{
		UserRef:  acct.OwnerRef,
		Amount:   entry.Amount,
		Subject:  "Loan Approved",
		Template: domain.TemplateLoanApproved,
	})

	return entry, nil
}

func (e *Engine) executeLoanApproval(ctx context.Context, number string, loanID int64) (*domain.Account, *domain.Transaction, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanApproval: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := lockAccount(ctx, tx, number)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanApproval: %w", err)
	}

	loans, err := loansInTx(ctx, tx, acct.Number)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanApproval: %w", err)
	}
	loan, ok := domain.FindLoan(loans, loanID)
	if !ok {
		return nil, nil, fmt.Errorf("executeLoanApproval: loan %d: %w", loanID, domain.ErrLoanNotFound)
	}

	if err := rules.LoanApproval(loan, domain.CountApprovedUnpaid(loans)); err != nil {
		return nil, nil, fmt.Errorf("executeLoanApproval: %w", err)
	}

	entry := &domain.Transaction{
		Kind:         domain.KindLoan,
		Amount:       loan.Amount,
		LoanApproved: true,
		LoanID:       &loan.ID,
	}
	if err := e.record(ctx, tx, acct, loan.Amount, entry); err != nil {
		return nil, nil, fmt.Errorf("executeLoanApproval: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeLoanApproval: commit: %w", err)
	}
	return acct, entry, nil
}

func (e *Engine) RepayLoan(ctx context.Context, req RepayLoanRequest) (*domain.Transaction, error) {
	var (
		acct  *domain.Account
		entry *domain.Transaction
	)
	err := e.withRetry(ctx, "RepayLoan", func() error {
		var err error
		acct, entry, err = e.executeLoanRepayment(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("RepayLoan: %w", err)
	}

	logging.FromContext(ctx).Info("loan repaid",
		"loan_id", req.LoanID,
		"transaction_id", entry.ID,
		"account", acct.Number,
		"amount", entry.Amount,
		"balance_after", entry.BalanceAfter,
	)

	e.notify(ctx, domain.Notification{
		UserRef:  acct.OwnerRef,
		Amount:   entry.Amount,
		Subject:  "Loan Repayment",
		Template: domain.TemplateLoanRepayment,
	})

	return entry, nil
}

func (e *Engine) executeLoanRepayment(ctx context.Context, req RepayLoanRequest) (*domain.Account, *domain.Transaction, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanRepayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := lockAccount(ctx, tx, req.AccountNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanRepayment: %w", err)
	}

	loans, err := loansInTx(ctx, tx, acct.Number)
	if err != nil {
		return nil, nil, fmt.Errorf("executeLoanRepayment: %w", err)
	}
	loan, ok := domain.FindLoan(loans, req.LoanID)
	if !ok {
		return nil, nil, fmt.Errorf("executeLoanRepayment: loan %d: %w", req.LoanID, domain.ErrLoanNotFound)
	}

	if err := rules.LoanRepayment(loan, acct.Balance); err != nil {
		return nil, nil, fmt.Errorf("executeLoanRepayment: %w", err)
	}

	entry := &domain.Transaction{
		Kind:         domain.KindLoanPaid,
		Amount:       loan.Amount,
		LoanApproved: true,
		LoanID:       &loan.ID,
	}
	if err := e.record(ctx, tx, acct, loan.Amount.Neg(), entry); err != nil {
		return nil, nil, fmt.Errorf("executeLoanRepayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeLoanRepayment: commit: %w", err)
	}
	return acct, entry, nil
}

func (e *Engine) loanRequestEntry(ctx context.Context, loanID int64) (*domain.Transaction, error) {
	entry, err := e.store.GetEntry(ctx, loanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("loanRequestEntry: %d: %w", loanID, domain.ErrLoanNotFound)
		}
		return nil, fmt.Errorf("loanRequestEntry: %w", err)
	}
	if entry.Kind != domain.KindLoan || entry.LoanID != nil {
		return nil, fmt.Errorf("loanRequestEntry: %d: %w", loanID, domain.ErrLoanNotFound)
	}
	return entry, nil
}

func loansInTx(ctx context.Context, tx repository.Tx, number string) ([]domain.Loan, error) {
	entries, err := tx.LoanEntries(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("loansInTx: %w", err)
	}
	return domain.DeriveLoans(entries), nil
}
