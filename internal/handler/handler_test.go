package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/middleware"
	"github.com/josh-kwaku/bank-ledger/internal/repository/memory"
	"github.com/josh-kwaku/bank-ledger/internal/service"
	"github.com/josh-kwaku/bank-ledger/internal/service/engine"
	"github.com/josh-kwaku/bank-ledger/internal/service/report"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *handler.APIError `json:"error"`
}

type testServer struct {
	t          *testing.T
	mux        *http.ServeMux
	engine     *engine.Engine
	accounts   *service.AccountService
	owner      uuid.UUID
	token      string
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	accounts := service.NewAccountService(store)
	eng := engine.New(store, nil, engine.DefaultConfig())
	reports := report.NewService(store)

	mux := http.NewServeMux()
	handler.Routes{
		Health:       handler.NewHealthHandler(store),
		Accounts:     handler.NewAccountHandler(accounts),
		Transactions: handler.NewTransactionHandler(accounts, eng),
		Transfers:    handler.NewTransferHandler(accounts, eng),
		Loans:        handler.NewLoanHandler(accounts, eng),
		Reports:      handler.NewReportHandler(accounts, reports),
		Auth:         middleware.Auth(testSecret),
		Admin:        middleware.RequireAdmin,
	}.Register(mux)

	owner := uuid.New()
	return &testServer{
		t:          t,
		mux:        mux,
		engine:     eng,
		accounts:   accounts,
		owner:      owner,
		token:      mintToken(t, owner, auth.RoleCustomer),
		adminToken: mintToken(t, uuid.New(), auth.RoleAdmin),
	}
}

func mintToken(t *testing.T, userID uuid.UUID, role auth.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// openAccount opens an account for owner and funds it through the engine.
func (s *testServer) openAccount(owner uuid.UUID, balance int64) string {
	s.t.Helper()
	ctx := context.Background()

	account, err := s.accounts.OpenAccount(ctx, owner)
	require.NoError(s.t, err)

	if balance > 0 {
		_, err = s.engine.Deposit(ctx, engine.DepositRequest{
			AccountNumber: account.Number,
			Amount:        decimal.NewFromInt(balance),
		})
		require.NoError(s.t, err)
	}
	return account.Number
}

func (s *testServer) do(method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(path, "/api/") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestAccountRoutes(t *testing.T) {
	s := newTestServer(t)

	body := `{"owner_ref": "` + s.owner.String() + `"}`

	rec, env := s.do(http.MethodPost, "/api/v1/admin/accounts", s.token, body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/admin/accounts", s.adminToken, `{"owner_ref": "nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{map[string]any{"field": "owner_ref", "message": "must be a UUID"}}, env.Error.Details)

	rec, env = s.do(http.MethodPost, "/api/v1/admin/accounts", s.adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opened := decodeData[map[string]any](t, env)
	number, _ := opened["account_number"].(string)
	require.Len(t, number, 10)
	assert.Equal(t, s.owner.String(), opened["owner_ref"])
	assert.Equal(t, "0.00", opened["balance"])

	stranger := s.openAccount(uuid.New(), 0)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{name: "own account", path: "/api/v1/accounts/" + number, token: s.token, wantStatus: http.StatusOK},
		{name: "someone else's account", path: "/api/v1/accounts/" + stranger, token: s.token, wantStatus: http.StatusNotFound, wantCode: "RESOURCE_NOT_FOUND"},
		{name: "unknown account", path: "/api/v1/accounts/9999999999", token: s.token, wantStatus: http.StatusNotFound, wantCode: "RESOURCE_NOT_FOUND"},
		{name: "missing token", path: "/api/v1/accounts/" + number, wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "bad token", path: "/api/v1/accounts/" + number, token: "garbage", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(http.MethodGet, tc.path, tc.token, "")
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tc.wantCode, env.Error.Code)
			} else {
				assert.True(t, env.Success)
			}
		})
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	s := newTestServer(t)
	number := s.openAccount(s.owner, 1000)

	tests := []struct {
		name        string
		path        string
		body        string
		wantStatus  int
		wantCode    string
		wantBalance string
		wantLimit   string
	}{
		{name: "deposit", path: "deposits", body: `{"amount": 150}`, wantStatus: http.StatusCreated, wantBalance: "1150.00"},
		{name: "deposit as string", path: "deposits", body: `{"amount": "100.50"}`, wantStatus: http.StatusCreated, wantBalance: "1250.50"},
		{name: "deposit below minimum", path: "deposits", body: `{"amount": 99.99}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "BELOW_MINIMUM", wantLimit: "100.00"},
		{name: "deposit with fractional cents", path: "deposits", body: `{"amount": "150.001"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_AMOUNT"},
		{name: "missing amount", path: "deposits", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "malformed body", path: "deposits", body: `{"amount":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "withdraw", path: "withdrawals", body: `{"amount": 500}`, wantStatus: http.StatusCreated, wantBalance: "750.50"},
		{name: "withdraw below minimum", path: "withdrawals", body: `{"amount": 499}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "BELOW_MINIMUM", wantLimit: "500.00"},
		{name: "withdraw above maximum", path: "withdrawals", body: `{"amount": 20001}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "ABOVE_MAXIMUM", wantLimit: "20000.00"},
		{name: "withdraw more than balance", path: "withdrawals", body: `{"amount": 751}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "INSUFFICIENT_FUNDS"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(http.MethodPost, "/api/v1/accounts/"+number+"/"+tc.path, s.token, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			if tc.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tc.wantCode, env.Error.Code)
				if tc.wantLimit != "" {
					assert.Equal(t, map[string]any{"limit": tc.wantLimit}, env.Error.Details)
				}
				return
			}

			entry := decodeData[map[string]any](t, env)
			assert.Equal(t, tc.wantBalance, entry["balance_after"])
		})
	}
}

func TestTransfer(t *testing.T) {
	s := newTestServer(t)
	sender := s.openAccount(s.owner, 1000)
	receiver := s.openAccount(uuid.New(), 200)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "short receiver number", body: `{"receiver_account": "123", "amount": 10}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "self transfer", body: `{"receiver_account": "` + sender + `", "amount": 10}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "SELF_TRANSFER_NOT_ALLOWED"},
		{name: "zero amount", body: `{"receiver_account": "` + receiver + `", "amount": 0}`, wantStatus: http.StatusBadRequest, wantCode: "NON_POSITIVE_AMOUNT"},
		{name: "unknown receiver", body: `{"receiver_account": "0000000001", "amount": 10}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "RECEIVER_NOT_FOUND"},
		{name: "insufficient funds", body: `{"receiver_account": "` + receiver + `", "amount": 5000}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "INSUFFICIENT_FUNDS"},
		{name: "success", body: `{"receiver_account": "` + receiver + `", "amount": 300}`, wantStatus: http.StatusCreated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(http.MethodPost, "/api/v1/accounts/"+sender+"/transfers", s.token, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tc.wantCode, env.Error.Code)
				return
			}

			entry := decodeData[map[string]any](t, env)
			assert.Equal(t, "transfer_out", entry["kind"])
			assert.Equal(t, "300.00", entry["amount"])
			assert.Equal(t, "700.00", entry["balance_after"])
			assert.Equal(t, receiver, entry["counterparty"])
		})
	}

	_, env := s.do(http.MethodGet, "/api/v1/accounts/"+sender+"/transfers", s.token, "")
	listed := decodeData[map[string]any](t, env)
	transfers, _ := listed["transactions"].([]any)
	assert.Len(t, transfers, 1)
}

func TestLoanLifecycle(t *testing.T) {
	s := newTestServer(t)
	number := s.openAccount(s.owner, 1000)
	base := "/api/v1/accounts/" + number + "/loans"

	rec, env := s.do(http.MethodPost, base, s.token, `{"amount": 300}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	requested := decodeData[map[string]any](t, env)
	assert.Equal(t, false, requested["loan_approved"])
	loanID := int64(requested["id"].(float64))
	loanPath := "/api/v1/admin/loans/" + strconv.FormatInt(loanID, 10) + "/approve"
	repayPath := base + "/" + strconv.FormatInt(loanID, 10) + "/repay"

	rec, env = s.do(http.MethodPost, repayPath, s.token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LOAN_NOT_APPROVED", env.Error.Code)

	rec, env = s.do(http.MethodPost, loanPath, s.token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, env = s.do(http.MethodPost, loanPath, s.adminToken, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	approved := decodeData[map[string]any](t, env)
	assert.Equal(t, "1300.00", approved["balance_after"])

	rec, env = s.do(http.MethodPost, loanPath, s.adminToken, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LOAN_NOT_PENDING", env.Error.Code)

	_, env = s.do(http.MethodGet, base, s.token, "")
	loans := decodeData[[]map[string]any](t, env)
	require.Len(t, loans, 1)
	assert.Equal(t, "approved", loans[0]["status"])

	rec, env = s.do(http.MethodPost, repayPath, s.token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	repaid := decodeData[map[string]any](t, env)
	assert.Equal(t, "1000.00", repaid["balance_after"])

	rec, env = s.do(http.MethodPost, repayPath, s.token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LOAN_ALREADY_PAID", env.Error.Code)

	rec, env = s.do(http.MethodPost, base+"/999/repay", s.token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LOAN_NOT_FOUND", env.Error.Code)
}

func TestTransactionReport(t *testing.T) {
	s := newTestServer(t)
	number := s.openAccount(s.owner, 1000)
	path := "/api/v1/accounts/" + number + "/transactions"
	today := time.Now().UTC().Format("2006-01-02")

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
		wantCount  int
	}{
		{name: "no filter", wantStatus: http.StatusOK, wantCount: 1},
		{name: "today", query: "?start_date=" + today + "&end_date=" + today, wantStatus: http.StatusOK, wantCount: 1},
		{name: "past range", query: "?start_date=2000-01-01&end_date=2000-01-31", wantStatus: http.StatusOK, wantCount: 0},
		{name: "bad date", query: "?start_date=01/02/2024", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "inverted range", query: "?start_date=2024-02-01&end_date=2024-01-01", wantStatus: http.StatusBadRequest, wantCode: "INVALID_DATE_RANGE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(http.MethodGet, path+tc.query, s.token, "")
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tc.wantCode, env.Error.Code)
				return
			}

			rep := decodeData[map[string]any](t, env)
			txs, _ := rep["transactions"].([]any)
			assert.Len(t, txs, tc.wantCount)
			assert.Equal(t, "1000.00", rep["balance"])
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready"} {
		rec, _ := s.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
