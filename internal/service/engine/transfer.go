package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/service/rules"
)

type TransferRequest struct {
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                decimal.Decimal
}

type TransferResult struct {
	Out *domain.Transaction
	In  *domain.Transaction
}

func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := rules.Amount(req.Amount); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	var (
		sender, receiver *domain.Account
		res              *TransferResult
	)
	err := e.withRetry(ctx, "Transfer", func() error {
		var err error
		sender, receiver, res, err = e.executeTransfer(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	logging.FromContext(ctx).Info("transfer committed",
		"out_transaction_id", res.Out.ID,
		"in_transaction_id", res.In.ID,
		"sender_account", sender.Number,
		"receiver_account", receiver.Number,
		"amount", req.Amount,
	)

	e.notify(ctx, domain.Notification{
		UserRef:  sender.OwnerRef,
		Amount:   req.Amount,
		Subject:  "Money Transfer Confirmation",
		Template: domain.TemplateTransfer,
		Extra: map[string]string{
			"receiver_account": receiver.Number,
			"user_balance":     res.Out.BalanceAfter.StringFixed(2),
		},
	})
	e.notify(ctx, domain.Notification{
		UserRef:  receiver.OwnerRef,
		Amount:   req.Amount,
		Subject:  "Money Received",
		Template: domain.TemplateTransferReceived,
		Extra: map[string]string{
			"sender_account": sender.Number,
		},
	})

	return res, nil
}

func (e *Engine) executeTransfer(ctx context.Context, req TransferRequest) (*domain.Account, *domain.Account, *TransferResult, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("executeTransfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := tx.AccountsForUpdate(ctx, req.SenderAccountNumber, req.ReceiverAccountNumber)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("executeTransfer: %w", err)
	}

	sender, ok := locked[req.SenderAccountNumber]
	if !ok {
		return nil, nil, nil, fmt.Errorf("executeTransfer: sender: %w", domain.ErrAccountNotFound)
	}
	receiver, found := locked[req.ReceiverAccountNumber]

	if err := rules.Transfer(rules.TransferCheck{
		SenderNumber:   req.SenderAccountNumber,
		ReceiverNumber: req.ReceiverAccountNumber,
		Amount:         req.Amount,
		SenderBalance:  sender.Balance,
		ReceiverFound:  found,
	}); err != nil {
		return nil, nil, nil, fmt.Errorf("executeTransfer: %w", err)
	}

	receiverNumber, senderNumber := receiver.Number, sender.Number
	out := &domain.Transaction{Kind: domain.KindTransferOut, Amount: req.Amount, Counterparty: &receiverNumber}
	if err := e.record(ctx, tx, sender, req.Amount.Neg(), out); err != nil {
		return nil, nil, nil, fmt.Errorf("executeTransfer: debit sender: %w", err)
	}

	in := &domain.Transaction{Kind: domain.KindTransferIn, Amount: req.Amount, Counterparty: &senderNumber}
	if err := e.record(ctx, tx, receiver, req.Amount, in); err != nil {
		return nil, nil, nil, fmt.Errorf("executeTransfer: credit receiver: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, fmt.Errorf("executeTransfer: commit: %w", err)
	}
	return sender, receiver, &TransferResult{Out: out, In: in}, nil
}
