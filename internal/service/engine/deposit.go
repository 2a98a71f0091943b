package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/service/rules"
)

type DepositRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
}

type WithdrawRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
}

func (e *Engine) Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error) {
	if err := rules.Amount(req.Amount); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	if err := rules.Deposit(req.Amount); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	var (
		acct  *domain.Account
		entry *domain.Transaction
	)
	err := e.withRetry(ctx, "Deposit", func() error {
		var err error
		acct, entry, err = e.executeDeposit(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	logging.FromContext(ctx).Info("deposit committed",
		"transaction_id", entry.ID,
		"account", acct.Number,
		"amount", req.Amount,
		"balance_after", entry.BalanceAfter,
	)

	e.notify(ctx, domain.Notification{
		UserRef:  acct.OwnerRef,
		Amount:   req.Amount,
		Subject:  "Deposit Transaction",
		Template: domain.TemplateDeposit,
	})

	return entry, nil
}

func (e *Engine) executeDeposit(ctx context.Context, req DepositRequest) (*domain.Account, *domain.Transaction, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("executeDeposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := lockAccount(ctx, tx, req.AccountNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("executeDeposit: %w", err)
	}

	entry := &domain.Transaction{Kind: domain.KindDeposit, Amount: req.Amount}
	if err := e.record(ctx, tx, acct, req.Amount, entry); err != nil {
		return nil, nil, fmt.Errorf("executeDeposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeDeposit: commit: %w", err)
	}
	return acct, entry, nil
}

func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error) {
	if err := rules.Amount(req.Amount); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	var (
		acct  *domain.Account
		entry *domain.Transaction
	)
	err := e.withRetry(ctx, "Withdraw", func() error {
		var err error
		acct, entry, err = e.executeWithdraw(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	logging.FromContext(ctx).Info("withdrawal committed",
		"transaction_id", entry.ID,
		"account", acct.Number,
		"amount", req.Amount,
		"balance_after", entry.BalanceAfter,
	)

	e.notify(ctx, domain.Notification{
		UserRef:  acct.OwnerRef,
		Amount:   req.Amount,
		Subject:  "Withdrawal Transaction",
		Template: domain.TemplateWithdrawal,
	})

	return entry, nil
}

func (e *Engine) executeWithdraw(ctx context.Context, req WithdrawRequest) (*domain.Account, *domain.Transaction, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("executeWithdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := lockAccount(ctx, tx, req.AccountNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("executeWithdraw: %w", err)
	}

	if err := rules.Withdrawal(req.Amount, acct.Balance); err != nil {
		return nil, nil, fmt.Errorf("executeWithdraw: %w", err)
	}

	entry := &domain.Transaction{Kind: domain.KindWithdrawal, Amount: req.Amount}
	if err := e.record(ctx, tx, acct, req.Amount.Neg(), entry); err != nil {
		return nil, nil, fmt.Errorf("executeWithdraw: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeWithdraw: commit: %w", err)
	}
	return acct, entry, nil
}
