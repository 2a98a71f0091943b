package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

const openAttempts = 3

type accountStore interface {
	GetAccount(ctx context.Context, number string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
}

type AccountService struct {
	accounts accountStore
}

func NewAccountService(accounts accountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// OpenAccount creates a zero-balance account with a fresh random number.
// A number collision surfaces as domain.ErrConflict and is retried.
func (s *AccountService) OpenAccount(ctx context.Context, ownerRef uuid.UUID) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		number, err := generateAccountNumber()
		if err != nil {
			return nil, fmt.Errorf("OpenAccount: %w", err)
		}

		account := &domain.Account{
			Number:    number,
			OwnerRef:  ownerRef,
			Balance:   decimal.Zero,
			Version:   1,
			CreatedAt: time.Now().UTC(),
		}

		err = s.accounts.CreateAccount(ctx, account)
		if err == nil {
			log.Info("account opened", "account_number", number, "owner_ref", ownerRef)
			return account, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == openAttempts {
			return nil, fmt.Errorf("OpenAccount: %w", err)
		}
		log.Debug("account number collision, regenerating", "attempt", attempt)
	}
}

// GetOwnedAccount returns the account only when ownerRef owns it. A foreign
// account is reported as not found so callers cannot probe for numbers.
func (s *AccountService) GetOwnedAccount(ctx context.Context, number string, ownerRef uuid.UUID) (*domain.Account, error) {
	if !domain.ValidAccountNumber(number) {
		return nil, fmt.Errorf("GetOwnedAccount: %w", domain.ErrNotFound)
	}

	account, err := s.accounts.GetAccount(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("GetOwnedAccount: %w", err)
	}
	if account.OwnerRef != ownerRef {
		return nil, fmt.Errorf("GetOwnedAccount: %w", domain.ErrNotFound)
	}
	return account, nil
}

func generateAccountNumber() (string, error) {
	digits := make([]byte, 10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
