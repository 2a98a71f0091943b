package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

const transactionColumns = `id, account_number, kind, amount, balance_after,
	loan_approved, loan_id, counterparty, created_at`

// EntryFilter narrows a ledger listing. From is inclusive, To exclusive.
type EntryFilter struct {
	From  *time.Time
	To    *time.Time
	Kinds []domain.Kind
}

func (f EntryFilter) Match(e *domain.Transaction) bool {
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.CreatedAt.Before(*f.To) {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Append(ctx context.Context, tx *sql.Tx, entry *domain.Transaction) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO transactions (
			account_number, kind, amount, balance_after,
			loan_approved, loan_id, counterparty, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		entry.AccountNumber, entry.Kind, entry.Amount, entry.BalanceAfter,
		entry.LoanApproved, entry.LoanID, entry.Counterparty, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("Append: %w", classify(err))
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	e, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, number string, f EntryFilter) ([]domain.Transaction, error) {
	where := []string{"account_number = $1"}
	args := []any{number}

	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, pq.Array(kinds))
		where = append(where, fmt.Sprintf("kind = ANY($%d)", len(args)))
	}

	entries, err := queryTransactions(ctx, r.db,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	return entries, nil
}

func (r *TransactionRepository) LoanEntries(ctx context.Context, q querier, number string) ([]domain.Transaction, error) {
	entries, err := queryTransactions(ctx, q,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_number = $1 AND kind IN ('loan', 'loan_paid')
		ORDER BY id`,
		number,
	)
	if err != nil {
		return nil, fmt.Errorf("LoanEntries: %w", err)
	}
	return entries, nil
}

func queryTransactions(ctx context.Context, q querier, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		e, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		e            domain.Transaction
		loanID       sql.NullInt64
		counterparty sql.NullString
	)
	err := s.Scan(
		&e.ID, &e.AccountNumber, &e.Kind, &e.Amount, &e.BalanceAfter,
		&e.LoanApproved, &loanID, &counterparty, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if loanID.Valid {
		id := loanID.Int64
		e.LoanID = &id
	}
	if counterparty.Valid {
		c := counterparty.String
		e.Counterparty = &c
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
