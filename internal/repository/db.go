package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// Tx is one atomic unit against the account store and the ledger. Nothing it
// writes is visible to other units until Commit returns nil.
type Tx interface {
	AccountsForUpdate(ctx context.Context, numbers ...string) (map[string]*domain.Account, error)
	ApplyDelta(ctx context.Context, number string, delta, expectedPrior decimal.Decimal) (decimal.Decimal, error)
	AppendEntry(ctx context.Context, entry *domain.Transaction) error
	LoanEntries(ctx context.Context, number string) ([]domain.Transaction, error)
	Commit() error
	Rollback() error
}

// Store is the PostgreSQL-backed account store and ledger.
type Store struct {
	pool         *sql.DB
	accounts     *AccountRepository
	transactions *TransactionRepository
}

func NewStore(pool *sql.DB) *Store {
	return &Store{
		pool:         pool,
		accounts:     NewAccountRepository(pool),
		transactions: NewTransactionRepository(pool),
	}
}

func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Begin: %w", err)
	}
	return &pgTx{tx: tx, store: s}, nil
}

func (s *Store) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	return s.accounts.GetByNumber(ctx, number)
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	return s.accounts.Create(ctx, account)
}

func (s *Store) GetEntry(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

func (s *Store) ListEntries(ctx context.Context, number string, f EntryFilter) ([]domain.Transaction, error) {
	return s.transactions.ListByAccount(ctx, number, f)
}

func (s *Store) LoanEntries(ctx context.Context, number string) ([]domain.Transaction, error) {
	return s.transactions.LoanEntries(ctx, s.pool, number)
}

func (s *Store) PingContext(ctx context.Context) error {
	return s.pool.PingContext(ctx)
}

type pgTx struct {
	tx    *sql.Tx
	store *Store
}

// AccountsForUpdate row-locks the accounts in ascending number order so two
// units touching the same pair can never wait on each other. Unknown numbers
// are left out of the result.
func (t *pgTx) AccountsForUpdate(ctx context.Context, numbers ...string) (map[string]*domain.Account, error) {
	result := make(map[string]*domain.Account, len(numbers))
	for _, n := range lockOrder(numbers) {
		acct, err := t.store.accounts.GetForUpdate(ctx, t.tx, n)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("AccountsForUpdate: %w", err)
		}
		result[n] = acct
	}
	return result, nil
}

func (t *pgTx) ApplyDelta(ctx context.Context, number string, delta, expectedPrior decimal.Decimal) (decimal.Decimal, error) {
	return t.store.accounts.ApplyDelta(ctx, t.tx, number, delta, expectedPrior)
}

func (t *pgTx) AppendEntry(ctx context.Context, entry *domain.Transaction) error {
	return t.store.transactions.Append(ctx, t.tx, entry)
}

func (t *pgTx) LoanEntries(ctx context.Context, number string) ([]domain.Transaction, error) {
	return t.store.transactions.LoanEntries(ctx, t.tx, number)
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("Commit: %w", classify(err))
	}
	return nil
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}

func lockOrder(numbers []string) []string {
	seen := make(map[string]struct{}, len(numbers))
	sorted := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	return sorted
}
