package handler

import "net/http"

type Routes struct {
	Health       *HealthHandler
	Accounts     *AccountHandler
	Transactions *TransactionHandler
	Transfers    *TransferHandler
	Loans        *LoanHandler
	Reports      *ReportHandler

	Auth  func(http.Handler) http.Handler
	Admin func(http.Handler) http.Handler
}

func (rt Routes) Register(mux *http.ServeMux) {
	protected := func(h http.HandlerFunc) http.Handler { return rt.Auth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return rt.Auth(rt.Admin(h)) }

	mux.HandleFunc("GET /health", rt.Health.Liveness)
	mux.HandleFunc("GET /health/ready", rt.Health.Readiness)

	mux.Handle("GET /api/v1/accounts/{number}", protected(rt.Accounts.Get))
	mux.Handle("POST /api/v1/accounts/{number}/deposits", protected(rt.Transactions.Deposit))
	mux.Handle("POST /api/v1/accounts/{number}/withdrawals", protected(rt.Transactions.Withdraw))
	mux.Handle("POST /api/v1/accounts/{number}/transfers", protected(rt.Transfers.Create))
	mux.Handle("GET /api/v1/accounts/{number}/transfers", protected(rt.Reports.Transfers))
	mux.Handle("POST /api/v1/accounts/{number}/loans", protected(rt.Loans.Request))
	mux.Handle("GET /api/v1/accounts/{number}/loans", protected(rt.Loans.List))
	mux.Handle("POST /api/v1/accounts/{number}/loans/{id}/repay", protected(rt.Loans.Repay))
	mux.Handle("GET /api/v1/accounts/{number}/transactions", protected(rt.Reports.Transactions))

	mux.Handle("POST /api/v1/admin/accounts", admin(rt.Accounts.Open))
	mux.Handle("POST /api/v1/admin/loans/{id}/approve", admin(rt.Loans.Approve))
}
