package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

const accountColumns = `account_number, owner_ref, balance, version, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumber: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (account_number, owner_ref, balance, version, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		account.Number, account.OwnerRef, account.Balance, account.Version, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", classify(err))
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, number string) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, number,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", classify(err))
	}
	return a, nil
}

// ApplyDelta adds delta to the balance only if it still equals expectedPrior.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx *sql.Tx, number string, delta, expectedPrior decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1, version = version + 1
		WHERE account_number = $2 AND balance = $3
		RETURNING balance`,
		delta, number, expectedPrior,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("ApplyDelta: %s: %w", number, domain.ErrConflict)
		}
		return decimal.Zero, fmt.Errorf("ApplyDelta: %w", classify(err))
	}
	return newBalance, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.Number, &a.OwnerRef, &a.Balance, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
