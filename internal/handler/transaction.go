package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/service/engine"
)

type cashEngine interface {
	Deposit(ctx context.Context, req engine.DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req engine.WithdrawRequest) (*domain.Transaction, error)
}

type TransactionHandler struct {
	accounts accountLookup
	engine   cashEngine
}

func NewTransactionHandler(accounts accountLookup, engine cashEngine) *TransactionHandler {
	return &TransactionHandler{accounts: accounts, engine: engine}
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type transactionDTO struct {
	ID            int64     `json:"id"`
	AccountNumber string    `json:"account_number"`
	Kind          string    `json:"kind"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	LoanApproved  bool      `json:"loan_approved"`
	LoanID        *int64    `json:"loan_id,omitempty"`
	Counterparty  *string   `json:"counterparty,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		Kind:          string(t.Kind),
		Amount:        t.Amount.StringFixed(2),
		BalanceAfter:  t.BalanceAfter.StringFixed(2),
		LoanApproved:  t.LoanApproved,
		LoanID:        t.LoanID,
		Counterparty:  t.Counterparty,
		CreatedAt:     t.CreatedAt,
	}
}

func toTransactionDTOs(entries []domain.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, len(entries))
	for i := range entries {
		dtos[i] = toTransactionDTO(&entries[i])
	}
	return dtos
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req amountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	entry, err := h.engine.Deposit(r.Context(), engine.DepositRequest{
		AccountNumber: account.Number,
		Amount:        *req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(entry))
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req amountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	entry, err := h.engine.Withdraw(r.Context(), engine.WithdrawRequest{
		AccountNumber: account.Number,
		Amount:        *req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(entry))
}
