package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Template string

const (
	TemplateDeposit          Template = "deposit"
	TemplateWithdrawal       Template = "withdrawal"
	TemplateLoanRequest      Template = "loan_request"
	TemplateLoanApproved     Template = "loan_approved"
	TemplateLoanRepayment    Template = "loan_repayment"
	TemplateTransfer         Template = "transfer"
	TemplateTransferReceived Template = "transfer_received"
)

type Notification struct {
	UserRef  uuid.UUID         `json:"user_ref"`
	Amount   decimal.Decimal   `json:"amount"`
	Subject  string            `json:"subject"`
	Template Template          `json:"template"`
	Extra    map[string]string `json:"extra,omitempty"`
}
