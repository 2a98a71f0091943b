package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdrawal  Kind = "withdrawal"
	KindLoan        Kind = "loan"
	KindLoanPaid    Kind = "loan_paid"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindLoan, KindLoanPaid, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. LoanID is set on the approval and
// repayment entries and points at the loan request entry they supersede.
type Transaction struct {
	ID            int64
	AccountNumber string
	Kind          Kind
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	LoanApproved  bool
	LoanID        *int64
	Counterparty  *string
	CreatedAt     time.Time
}

// SignedEffect is the change this entry applied to its account's balance.
func (t *Transaction) SignedEffect() decimal.Decimal {
	switch t.Kind {
	case KindDeposit, KindTransferIn:
		return t.Amount
	case KindWithdrawal, KindTransferOut, KindLoanPaid:
		return t.Amount.Neg()
	case KindLoan:
		if t.LoanApproved && t.LoanID != nil {
			return t.Amount
		}
	}
	return decimal.Zero
}

func SumEffects(entries []Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		total = total.Add(entries[i].SignedEffect())
	}
	return total
}

// HasCents reports whether d fits the two-fractional-digit money format.
func HasCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
