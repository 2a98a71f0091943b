package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

type accountService interface {
	accountLookup
	OpenAccount(ctx context.Context, ownerRef uuid.UUID) (*domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountDTO struct {
	AccountNumber string    `json:"account_number"`
	OwnerRef      uuid.UUID `json:"owner_ref"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		AccountNumber: a.Number,
		OwnerRef:      a.OwnerRef,
		Balance:       a.Balance.StringFixed(2),
		CreatedAt:     a.CreatedAt,
	}
}

type openAccountRequest struct {
	OwnerRef string `json:"owner_ref" validate:"required,uuid"`
}

// Open provisions an account for an existing user. It is mounted behind the
// admin role check; customers never open accounts themselves.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := h.accounts.OpenAccount(r.Context(), uuid.MustParse(req.OwnerRef))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to open account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}
