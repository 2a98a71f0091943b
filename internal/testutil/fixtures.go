package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// SeedAccount inserts an account and, for a positive balance, the deposit
// entry that explains it so the ledger stays consistent.
func SeedAccount(t *testing.T, db *sql.DB, number string, balance decimal.Decimal) *domain.Account {
	t.Helper()

	a := &domain.Account{
		Number:    number,
		OwnerRef:  uuid.New(),
		Balance:   balance,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (account_number, owner_ref, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.Number, a.OwnerRef, a.Balance, a.Version, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", number, err)
	}

	if balance.IsPositive() {
		_, err = db.Exec(
			`INSERT INTO transactions (account_number, kind, amount, balance_after, created_at)
			 VALUES ($1, 'deposit', $2, $2, $3)`,
			a.Number, balance, a.CreatedAt,
		)
		if err != nil {
			t.Fatalf("seed opening deposit %s: %v", number, err)
		}
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, number string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE account_number = $1`, number).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", number, err)
	}
	return balance
}

func CountEntries(t *testing.T, db *sql.DB, number string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_number = $1`, number).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for %s: %v", number, err)
	}
	return count
}

// LedgerSum is the balance implied by the account's entries.
func LedgerSum(t *testing.T, db *sql.DB, number string) decimal.Decimal {
	t.Helper()

	var sum decimal.Decimal
	err := db.QueryRow(`
		SELECT COALESCE(SUM(CASE
			WHEN kind IN ('deposit', 'transfer_in') THEN amount
			WHEN kind = 'loan' AND loan_approved AND loan_id IS NOT NULL THEN amount
			WHEN kind IN ('withdrawal', 'transfer_out', 'loan_paid') THEN -amount
			ELSE 0 END), 0)
		FROM transactions WHERE account_number = $1`, number).Scan(&sum)
	if err != nil {
		t.Fatalf("ledger sum for %s: %v", number, err)
	}
	return sum
}
