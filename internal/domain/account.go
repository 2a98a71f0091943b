package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

type Account struct {
	Number    string
	OwnerRef  uuid.UUID
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
}

func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}
