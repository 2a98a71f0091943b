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

type loanEngine interface {
	RequestLoan(ctx context.Context, req engine.LoanRequest) (*domain.Transaction, error)
	ApproveLoan(ctx context.Context, req engine.ApproveLoanRequest) (*domain.Transaction, error)
	RepayLoan(ctx context.Context, req engine.RepayLoanRequest) (*domain.Transaction, error)
	ListLoans(ctx context.Context, number string) ([]domain.Loan, error)
}

type LoanHandler struct {
	accounts accountLookup
	engine   loanEngine
}

func NewLoanHandler(accounts accountLookup, engine loanEngine) *LoanHandler {
	return &LoanHandler{accounts: accounts, engine: engine}
}

type loanDTO struct {
	ID            int64      `json:"id"`
	AccountNumber string     `json:"account_number"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

func toLoanDTO(l *domain.Loan) loanDTO {
	return loanDTO{
		ID:            l.ID,
		AccountNumber: l.AccountNumber,
		Amount:        l.Amount.StringFixed(2),
		Status:        string(l.Status),
		RequestedAt:   l.RequestedAt,
		ApprovedAt:    l.ApprovedAt,
		PaidAt:        l.PaidAt,
	}
}

func (h *LoanHandler) Request(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req struct {
		Amount *decimal.Decimal `json:"amount" validate:"required"`
	}
	if !decodeRequest(w, r, &req) {
		return
	}

	entry, err := h.engine.RequestLoan(r.Context(), engine.LoanRequest{
		AccountNumber: account.Number,
		Amount:        *req.Amount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("loan request rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(entry))
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	loans, err := h.engine.ListLoans(r.Context(), account.Number)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list loans", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]loanDTO, len(loans))
	for i := range loans {
		dtos[i] = toLoanDTO(&loans[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LoanHandler) Repay(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	loanID, ok := loanIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrLoanNotFound, nil)
		return
	}

	entry, err := h.engine.RepayLoan(r.Context(), engine.RepayLoanRequest{
		AccountNumber: account.Number,
		LoanID:        loanID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("loan repayment rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(entry))
}

// Approve is mounted behind the admin role check.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrLoanNotFound, nil)
		return
	}

	entry, err := h.engine.ApproveLoan(r.Context(), engine.ApproveLoanRequest{LoanID: loanID})
	if err != nil {
		logging.FromContext(r.Context()).Warn("loan approval rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(entry))
}
