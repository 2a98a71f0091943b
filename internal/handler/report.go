package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/service/report"
)

const dateLayout = "2006-01-02"

type reportService interface {
	QueryTransactions(ctx context.Context, q report.Query) (*report.Report, error)
}

type ReportHandler struct {
	accounts accountLookup
	reports  reportService
}

func NewReportHandler(accounts accountLookup, reports reportService) *ReportHandler {
	return &ReportHandler{accounts: accounts, reports: reports}
}

type reportDTO struct {
	AccountNumber string           `json:"account_number"`
	Balance       string           `json:"balance"`
	NetChange     string           `json:"net_change"`
	Transactions  []transactionDTO `json:"transactions"`
}

func (h *ReportHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	q := report.Query{AccountNumber: account.Number}
	var fields []FieldError
	q.StartDate, fields = parseDateParam(r, "start_date", fields)
	q.EndDate, fields = parseDateParam(r, "end_date", fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	h.respondReport(w, r, q)
}

func (h *ReportHandler) respondReport(w http.ResponseWriter, r *http.Request, q report.Query) {
	rep, err := h.reports.QueryTransactions(r.Context(), q)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction query failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, reportDTO{
		AccountNumber: rep.AccountNumber,
		Balance:       rep.Balance.StringFixed(2),
		NetChange:     rep.NetChange.StringFixed(2),
		Transactions:  toTransactionDTOs(rep.Entries),
	})
}

// Transfers lists both directions of the account's transfers, newest first.
func (h *ReportHandler) Transfers(w http.ResponseWriter, r *http.Request) {
	account, appErr := accountFromPath(r, h.accounts)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	h.respondReport(w, r, report.Query{
		AccountNumber: account.Number,
		Kinds:         []domain.Kind{domain.KindTransferOut, domain.KindTransferIn},
	})
}

func parseDateParam(r *http.Request, name string, fields []FieldError) (*time.Time, []FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, fields
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, append(fields, FieldError{Field: name, Message: "must be a date in YYYY-MM-DD format"})
	}
	return &t, fields
}
