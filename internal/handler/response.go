package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrNonPositiveAmount, ErrNonPositiveAmount},
	{domain.ErrInvalidDateRange, ErrInvalidDateRange},
	{domain.ErrBelowMinimum, ErrBelowMinimum},
	{domain.ErrAboveMaximum, ErrAboveMaximum},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrLoanLimitExceeded, ErrLoanLimitExceeded},
	{domain.ErrSelfTransfer, ErrSelfTransfer},
	{domain.ErrReceiverNotFound, ErrReceiverNotFound},
	{domain.ErrAccountNotFound, ErrAccountNotFound},
	{domain.ErrLoanNotFound, ErrLoanNotFound},
	{domain.ErrLoanNotPending, ErrLoanNotPending},
	{domain.ErrLoanNotApproved, ErrLoanNotApproved},
	{domain.ErrLoanAlreadyPaid, ErrLoanAlreadyPaid},
	{domain.ErrConflict, ErrConflict},
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := ErrInternalError
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			appErr = m.appErr
			break
		}
	}
	if appErr == ErrInternalError {
		slog.Error("unhandled domain error", "error", err)
	}

	var details any
	var limitErr *domain.LimitError
	if errors.As(err, &limitErr) {
		details = map[string]string{"limit": limitErr.Limit.StringFixed(2)}
	}

	RespondAppError(w, appErr, details)
}
