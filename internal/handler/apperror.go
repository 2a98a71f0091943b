package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must have at most two decimal places"}
	ErrNonPositiveAmount = &AppError{http.StatusBadRequest, "NON_POSITIVE_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidDateRange  = &AppError{http.StatusBadRequest, "INVALID_DATE_RANGE", "start_date must not be after end_date"}
	ErrBelowMinimum      = &AppError{http.StatusUnprocessableEntity, "BELOW_MINIMUM", "Amount is below the minimum"}
	ErrAboveMaximum      = &AppError{http.StatusUnprocessableEntity, "ABOVE_MAXIMUM", "Amount is above the maximum"}
	ErrInsufficientFunds = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrLoanLimitExceeded = &AppError{http.StatusUnprocessableEntity, "LOAN_LIMIT_EXCEEDED", "Too many approved loans outstanding"}
	ErrSelfTransfer      = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
	ErrReceiverNotFound  = &AppError{http.StatusUnprocessableEntity, "RECEIVER_NOT_FOUND", "Receiver account not found"}
	ErrAccountNotFound   = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrLoanNotFound      = &AppError{http.StatusNotFound, "LOAN_NOT_FOUND", "Loan not found"}
	ErrLoanNotPending    = &AppError{http.StatusConflict, "LOAN_NOT_PENDING", "Loan is not awaiting approval"}
	ErrLoanNotApproved   = &AppError{http.StatusConflict, "LOAN_NOT_APPROVED", "Loan has not been approved"}
	ErrLoanAlreadyPaid   = &AppError{http.StatusConflict, "LOAN_ALREADY_PAID", "Loan has already been repaid"}
	ErrConflict          = &AppError{http.StatusConflict, "CONFLICT", "Account was modified concurrently, please retry"}
)
