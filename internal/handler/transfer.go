package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/service/engine"
)

type transferEngine interface {
	Transfer(ctx context.Context, req engine.TransferRequest) (*engine.TransferResult, error)
}

type TransferHandler struct {
	accounts accountLookup
	engine   transferEngine
}

func NewTransferHandler(accounts accountLookup, engine transferEngine) *TransferHandler {
	return &TransferHandler{accounts: accounts, engine: engine}
}

type transferRequest struct {
	ReceiverAccount string           `json:"receiver_account" validate:"required,len=10,numeric"`
	Amount          *decimal.Decimal `json:"amount" validate:"required"`
}

func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transferRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.engine.Transfer(r.Context(), engine.TransferRequest{
		SenderAccountNumber:   account.Number,
		ReceiverAccountNumber: req.ReceiverAccount,
		Amount:                *req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	// The receiver's entry carries their balance, so only the sender side is returned.
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(result.Out))
}
