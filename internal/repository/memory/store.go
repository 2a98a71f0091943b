package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

// Store keeps accounts and the ledger in process memory. Units of work are
// optimistic: they record the version of every account they read and Commit
// rejects the whole unit with domain.ErrConflict if any of them moved.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	entries   []domain.Transaction
	byAccount map[string][]int
	nextID    int64
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]domain.Account),
		byAccount: make(map[string][]int),
	}
}

func (s *Store) CreateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Number]; ok {
		return fmt.Errorf("CreateAccount: %s exists: %w", account.Number, domain.ErrConflict)
	}
	s.accounts[account.Number] = *account
	return nil
}

func (s *Store) GetAccount(_ context.Context, number string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[number]
	if !ok {
		return nil, fmt.Errorf("GetAccount: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > int64(len(s.entries)) {
		return nil, fmt.Errorf("GetEntry: %w", domain.ErrNotFound)
	}
	e := s.entries[id-1]
	return &e, nil
}

func (s *Store) ListEntries(_ context.Context, number string, f repository.EntryFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, i := range s.byAccount[number] {
		if f.Match(&s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) LoanEntries(_ context.Context, number string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loanEntriesLocked(number), nil
}

func (s *Store) PingContext(context.Context) error {
	return nil
}

func (s *Store) Begin(context.Context) (repository.Tx, error) {
	return &tx{
		store:    s,
		versions: make(map[string]int64),
		working:  make(map[string]*domain.Account),
	}, nil
}

func (s *Store) loanEntriesLocked(number string) []domain.Transaction {
	var out []domain.Transaction
	for _, i := range s.byAccount[number] {
		if k := s.entries[i].Kind; k == domain.KindLoan || k == domain.KindLoanPaid {
			out = append(out, s.entries[i])
		}
	}
	return out
}

func (s *Store) hasSuccessorLocked(loanID int64, kind domain.Kind) bool {
	if loanID < 1 || loanID > int64(len(s.entries)) {
		return false
	}
	number := s.entries[loanID-1].AccountNumber
	for _, i := range s.byAccount[number] {
		e := s.entries[i]
		if e.LoanID != nil && *e.LoanID == loanID && e.Kind == kind {
			return true
		}
	}
	return false
}

type tx struct {
	store    *Store
	versions map[string]int64
	working  map[string]*domain.Account
	pending  []*domain.Transaction
	done     bool
}

func (t *tx) AccountsForUpdate(_ context.Context, numbers ...string) (map[string]*domain.Account, error) {
	if t.done {
		return nil, fmt.Errorf("AccountsForUpdate: transaction finished")
	}
	result := make(map[string]*domain.Account, len(numbers))
	for _, n := range numbers {
		acct, ok := t.read(n)
		if !ok {
			continue
		}
		cp := *acct
		result[n] = &cp
	}
	return result, nil
}

func (t *tx) read(number string) (*domain.Account, bool) {
	if a, ok := t.working[number]; ok {
		return a, true
	}
	t.store.mu.RLock()
	a, ok := t.store.accounts[number]
	t.store.mu.RUnlock()
	if !ok {
		return nil, false
	}
	t.versions[number] = a.Version
	t.working[number] = &a
	return &a, true
}

func (t *tx) ApplyDelta(_ context.Context, number string, delta, expectedPrior decimal.Decimal) (decimal.Decimal, error) {
	if t.done {
		return decimal.Zero, fmt.Errorf("ApplyDelta: transaction finished")
	}
	acct, ok := t.read(number)
	if !ok {
		return decimal.Zero, fmt.Errorf("ApplyDelta: %w", domain.ErrNotFound)
	}
	if !acct.Balance.Equal(expectedPrior) {
		return decimal.Zero, fmt.Errorf("ApplyDelta: %s: %w", number, domain.ErrConflict)
	}
	next := acct.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("ApplyDelta: %s: %w", number, domain.ErrInsufficientFunds)
	}
	acct.Balance = next
	acct.Version++
	return next, nil
}

func (t *tx) AppendEntry(_ context.Context, entry *domain.Transaction) error {
	if t.done {
		return fmt.Errorf("AppendEntry: transaction finished")
	}
	if _, ok := t.working[entry.AccountNumber]; !ok {
		if _, ok := t.read(entry.AccountNumber); !ok {
			return fmt.Errorf("AppendEntry: %w", domain.ErrNotFound)
		}
	}
	t.pending = append(t.pending, entry)
	return nil
}

func (t *tx) LoanEntries(_ context.Context, number string) ([]domain.Transaction, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.loanEntriesLocked(number), nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("Commit: transaction finished")
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for number, seen := range t.versions {
		if s.accounts[number].Version != seen {
			return fmt.Errorf("Commit: %s changed: %w", number, domain.ErrConflict)
		}
	}
	for _, e := range t.pending {
		if e.LoanID != nil && s.hasSuccessorLocked(*e.LoanID, e.Kind) {
			return fmt.Errorf("Commit: loan %d already has %s: %w", *e.LoanID, e.Kind, domain.ErrConflict)
		}
	}

	for number, acct := range t.working {
		if acct.Version != t.versions[number] {
			s.accounts[number] = *acct
		}
	}
	for _, e := range t.pending {
		s.nextID++
		e.ID = s.nextID
		s.entries = append(s.entries, *e)
		s.byAccount[e.AccountNumber] = append(s.byAccount[e.AccountNumber], len(s.entries)-1)
	}
	return nil
}

func (t *tx) Rollback() error {
	t.done = true
	return nil
}
