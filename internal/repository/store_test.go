package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

var accountCols = []string{"account_number", "owner_ref", "balance", "version", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestAccountsForUpdate_LocksInAscendingOrder(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC()

	lockQuery := regexp.QuoteMeta(`FROM accounts WHERE account_number = $1 FOR UPDATE`)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs("1000000001").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("1000000001", owner.String(), "1000.00", int64(2), now))
	mock.ExpectQuery(lockQuery).WithArgs("1000000009").
		WillReturnRows(sqlmock.NewRows(accountCols))
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	locked, err := tx.AccountsForUpdate(ctx, "1000000009", "1000000001", "1000000009")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	require.Len(t, locked, 1)
	acct := locked["1000000001"]
	require.NotNil(t, acct)
	assert.Equal(t, owner, acct.OwnerRef)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(2), acct.Version)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelta(t *testing.T) {
	updateQuery := regexp.QuoteMeta(`UPDATE accounts SET balance = balance + $1, version = version + 1`)

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		want    decimal.Decimal
		wantErr error
	}{
		{
			name: "balance matched",
			rows: sqlmock.NewRows([]string{"balance"}).AddRow("1300.00"),
			want: decimal.NewFromInt(1300),
		},
		{
			name:    "balance moved underneath",
			rows:    sqlmock.NewRows([]string{"balance"}),
			wantErr: domain.ErrConflict,
		},
		{
			name:    "serialization failure",
			err:     &pq.Error{Code: "40001", Message: "could not serialize access"},
			wantErr: domain.ErrConflict,
		},
		{
			name:    "balance check violated",
			err:     &pq.Error{Code: "23514", Message: "violates check constraint", Constraint: "accounts_balance_check"},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			ctx := context.Background()

			mock.ExpectBegin()
			q := mock.ExpectQuery(updateQuery).WithArgs(sqlmock.AnyArg(), "1000000001", sqlmock.AnyArg())
			if tc.err != nil {
				q.WillReturnError(tc.err)
			} else {
				q.WillReturnRows(tc.rows)
			}
			mock.ExpectRollback()

			tx, err := store.Begin(ctx)
			require.NoError(t, err)

			got, err := tx.ApplyDelta(ctx, "1000000001", decimal.NewFromInt(300), decimal.NewFromInt(1000))
			require.NoError(t, tx.Rollback())

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.True(t, tc.want.Equal(got), "got %s", got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAppendEntry_AssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs("1000000001", domain.KindDeposit, sqlmock.AnyArg(), sqlmock.AnyArg(), false, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	entry := &domain.Transaction{
		AccountNumber: "1000000001",
		Kind:          domain.KindDeposit,
		Amount:        decimal.NewFromInt(150),
		BalanceAfter:  decimal.NewFromInt(150),
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, tx.AppendEntry(ctx, entry))
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(42), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntries_BuildsFilter(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	loanID := int64(7)
	at := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

	cols := []string{"id", "account_number", "kind", "amount", "balance_after", "loan_approved", "loan_id", "counterparty", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE account_number = $1 AND created_at >= $2 AND created_at < $3 AND kind = ANY($4)`)).
		WithArgs("1000000001", from, to, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(9), "1000000001", "loan_paid", "500.00", "200.00", true, loanID, nil, at).
			AddRow(int64(8), "1000000001", "transfer_out", "100.00", "700.00", false, nil, "1000000002", at))

	entries, err := store.ListEntries(ctx, "1000000001", EntryFilter{
		From:  &from,
		To:    &to,
		Kinds: []domain.Kind{domain.KindLoanPaid, domain.KindTransferOut},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.KindLoanPaid, entries[0].Kind)
	require.NotNil(t, entries[0].LoanID)
	assert.Equal(t, loanID, *entries[0].LoanID)
	assert.Nil(t, entries[0].Counterparty)

	require.NotNil(t, entries[1].Counterparty)
	assert.Equal(t, "1000000002", *entries[1].Counterparty)
	assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(100)))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE account_number = $1`)).
		WithArgs("1000000001").
		WillReturnRows(sqlmock.NewRows(accountCols))

	_, err := store.GetAccount(context.Background(), "1000000001")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryFilterMatch(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	f := EntryFilter{From: &from, To: &to, Kinds: []domain.Kind{domain.KindDeposit}}

	assert.True(t, f.Match(&domain.Transaction{Kind: domain.KindDeposit, CreatedAt: from}))
	assert.False(t, f.Match(&domain.Transaction{Kind: domain.KindDeposit, CreatedAt: to}))
	assert.False(t, f.Match(&domain.Transaction{Kind: domain.KindWithdrawal, CreatedAt: from}))
	assert.True(t, EntryFilter{}.Match(&domain.Transaction{Kind: domain.KindWithdrawal}))
}
