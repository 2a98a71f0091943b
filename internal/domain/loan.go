package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusPaid     LoanStatus = "paid"
)

type Loan struct {
	ID            int64
	AccountNumber string
	Amount        decimal.Decimal
	Status        LoanStatus
	RequestedAt   time.Time
	ApprovedAt    *time.Time
	PaidAt        *time.Time
}

// DeriveLoans folds loan and loan_paid entries into loan states keyed by the
// request entry ID. Entries of other kinds are ignored.
func DeriveLoans(entries []Transaction) []Loan {
	sorted := make([]Transaction, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindLoan || e.Kind == KindLoanPaid {
			sorted = append(sorted, e)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int64]*Loan)
	var order []int64
	for _, e := range sorted {
		switch {
		case e.Kind == KindLoan && e.LoanID == nil:
			byID[e.ID] = &Loan{
				ID:            e.ID,
				AccountNumber: e.AccountNumber,
				Amount:        e.Amount,
				Status:        LoanStatusPending,
				RequestedAt:   e.CreatedAt,
			}
			order = append(order, e.ID)
		case e.Kind == KindLoan:
			if l, ok := byID[*e.LoanID]; ok && l.Status == LoanStatusPending {
				at := e.CreatedAt
				l.Status = LoanStatusApproved
				l.ApprovedAt = &at
			}
		case e.Kind == KindLoanPaid && e.LoanID != nil:
			if l, ok := byID[*e.LoanID]; ok && l.Status == LoanStatusApproved {
				at := e.CreatedAt
				l.Status = LoanStatusPaid
				l.PaidAt = &at
			}
		}
	}

	loans := make([]Loan, 0, len(order))
	for _, id := range order {
		loans = append(loans, *byID[id])
	}
	return loans
}

func FindLoan(loans []Loan, id int64) (*Loan, bool) {
	for i := range loans {
		if loans[i].ID == id {
			return &loans[i], true
		}
	}
	return nil, false
}

func CountApprovedUnpaid(loans []Loan) int {
	n := 0
	for _, l := range loans {
		if l.Status == LoanStatusApproved {
			n++
		}
	}
	return n
}
