package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

type ledgerReader interface {
	GetAccount(ctx context.Context, number string) (*domain.Account, error)
	ListEntries(ctx context.Context, number string, f repository.EntryFilter) ([]domain.Transaction, error)
}

type Service struct {
	ledger ledgerReader
}

func NewService(ledger ledgerReader) *Service {
	return &Service{ledger: ledger}
}

// Query selects one account's entries. StartDate and EndDate are calendar
// days in UTC and both bounds are inclusive.
type Query struct {
	AccountNumber string
	StartDate     *time.Time
	EndDate       *time.Time
	Kinds         []domain.Kind
}

type Report struct {
	AccountNumber string
	Entries       []domain.Transaction
	// Balance is the account's current balance.
	Balance decimal.Decimal
	// NetChange is the sum of signed effects of Entries. Without filters it
	// equals Balance.
	NetChange decimal.Decimal
}

func (s *Service) QueryTransactions(ctx context.Context, q Query) (*Report, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}

	acct, err := s.ledger.GetAccount(ctx, q.AccountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("QueryTransactions: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}

	entries, err := s.ledger.ListEntries(ctx, q.AccountNumber, filter)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}

	return &Report{
		AccountNumber: acct.Number,
		Entries:       entries,
		Balance:       acct.Balance,
		NetChange:     domain.SumEffects(entries),
	}, nil
}

func (q Query) filter() (repository.EntryFilter, error) {
	f := repository.EntryFilter{Kinds: q.Kinds}
	if q.StartDate != nil {
		from := day(*q.StartDate)
		f.From = &from
	}
	if q.EndDate != nil {
		to := day(*q.EndDate).AddDate(0, 0, 1)
		f.To = &to
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, domain.ErrInvalidDateRange
	}
	return f, nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
