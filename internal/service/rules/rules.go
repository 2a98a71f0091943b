package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

const MaxOpenLoans = 3

var (
	MinDeposit    = decimal.NewFromInt(100)
	MinWithdrawal = decimal.NewFromInt(500)
	MaxWithdrawal = decimal.NewFromInt(20000)
)

func Amount(amount decimal.Decimal) error {
	if !domain.HasCents(amount) {
		return fmt.Errorf("Amount: %w", domain.ErrInvalidAmount)
	}
	return nil
}

func Deposit(amount decimal.Decimal) error {
	if amount.LessThan(MinDeposit) {
		return &domain.LimitError{Err: domain.ErrBelowMinimum, Limit: MinDeposit}
	}
	return nil
}

func Withdrawal(amount, balance decimal.Decimal) error {
	if amount.LessThan(MinWithdrawal) {
		return &domain.LimitError{Err: domain.ErrBelowMinimum, Limit: MinWithdrawal}
	}
	if amount.GreaterThan(MaxWithdrawal) {
		return &domain.LimitError{Err: domain.ErrAboveMaximum, Limit: MaxWithdrawal}
	}
	if amount.GreaterThan(balance) {
		return fmt.Errorf("Withdrawal: %w", domain.ErrInsufficientFunds)
	}
	return nil
}

func LoanRequest(amount decimal.Decimal, approvedUnpaid int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("LoanRequest: %w", domain.ErrNonPositiveAmount)
	}
	if approvedUnpaid >= MaxOpenLoans {
		return fmt.Errorf("LoanRequest: %d open loans: %w", approvedUnpaid, domain.ErrLoanLimitExceeded)
	}
	return nil
}

func LoanApproval(loan *domain.Loan, approvedUnpaid int) error {
	if loan.Status != domain.LoanStatusPending {
		return fmt.Errorf("LoanApproval: loan %d is %s: %w", loan.ID, loan.Status, domain.ErrLoanNotPending)
	}
	if approvedUnpaid >= MaxOpenLoans {
		return fmt.Errorf("LoanApproval: %d open loans: %w", approvedUnpaid, domain.ErrLoanLimitExceeded)
	}
	return nil
}

// LoanRepayment requires the balance to stay above zero after repaying, so a
// loan equal to the whole balance is rejected.
func LoanRepayment(loan *domain.Loan, balance decimal.Decimal) error {
	switch loan.Status {
	case domain.LoanStatusApproved:
	case domain.LoanStatusPaid:
		return fmt.Errorf("LoanRepayment: loan %d: %w", loan.ID, domain.ErrLoanAlreadyPaid)
	default:
		return fmt.Errorf("LoanRepayment: loan %d: %w", loan.ID, domain.ErrLoanNotApproved)
	}
	if !loan.Amount.LessThan(balance) {
		return fmt.Errorf("LoanRepayment: %w", domain.ErrInsufficientFunds)
	}
	return nil
}

type TransferCheck struct {
	SenderNumber   string
	ReceiverNumber string
	Amount         decimal.Decimal
	SenderBalance  decimal.Decimal
	ReceiverFound  bool
}

func Transfer(c TransferCheck) error {
	if c.SenderNumber == c.ReceiverNumber {
		return fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("Transfer: %w", domain.ErrNonPositiveAmount)
	}
	if c.Amount.GreaterThan(c.SenderBalance) {
		return fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}
	if !c.ReceiverFound {
		return fmt.Errorf("Transfer: %s: %w", c.ReceiverNumber, domain.ErrReceiverNotFound)
	}
	return nil
}
