package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

type accountLookup interface {
	GetOwnedAccount(ctx context.Context, number string, ownerRef uuid.UUID) (*domain.Account, error)
}

func accountFromPath(r *http.Request, accounts accountLookup) (*domain.Account, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, ErrMissingToken
	}

	account, err := accounts.GetOwnedAccount(r.Context(), r.PathValue("number"), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		logging.FromContext(r.Context()).Error("failed to resolve account", "error", err)
		return nil, ErrInternalError
	}

	return account, nil
}

func loanIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
