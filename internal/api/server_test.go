package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/reconcile-backend/internal/api"
	"github.com/ledgerline/reconcile-backend/internal/api/dto"
	"github.com/ledgerline/reconcile-backend/internal/application/notify"
	"github.com/ledgerline/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerline/reconcile-backend/internal/domain/matching"
	"github.com/ledgerline/reconcile-backend/internal/infrastructure/storage"
)

type stubAlerts struct {
	outcome notify.Outcome
	calls   int
}

func (s *stubAlerts) CheckAndNotify(ctx context.Context) (notify.Outcome, error) {
	s.calls++
	return s.outcome, nil
}

func newTestServer(repo storage.Repository, alerts *stubAlerts) *api.Server {
	var checker reconcile.AlertChecker
	var service *stubAlerts
	if alerts != nil {
		checker = alerts
		service = alerts
	}
	orchestrator := reconcile.NewOrchestrator(repo, matching.NewEngine(), checker, nil)
	cfg := api.DefaultConfig()
	if service != nil {
		return api.NewServer(cfg, repo, orchestrator, service, nil)
	}
	return api.NewServer(cfg, repo, orchestrator, nil, nil)
}

func doJSON(t *testing.T, srv *api.Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository(), nil)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
}

func TestCustomers_CreateAndList(t *testing.T) {
	repo := storage.NewMockRepository()
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", dto.CreateCustomerRequest{
		Name:  "Acme Corp",
		Email: "billing@acme.test",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created dto.IDResponse
	decode(t, rec, &created)
	assert.Equal(t, int64(1), created.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/customers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list dto.CustomerListResponse
	decode(t, rec, &list)
	assert.Equal(t, 1, list.TotalCount)
	require.Len(t, list.Customers, 1)
	assert.Equal(t, "Acme Corp", list.Customers[0].Name)
}

func TestCustomers_CreateRequiresName(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository(), nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", dto.CreateCustomerRequest{Email: "x@y"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoices_CreateValidation(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository(), nil)

	cases := []dto.CreateInvoiceRequest{
		{CustomerID: 0, AmountDue: "10.00"},
		{CustomerID: 1, AmountDue: "not-a-number"},
		{CustomerID: 1, AmountDue: "-5.00"},
		{CustomerID: 1, AmountDue: "0.00"},
		{CustomerID: 1, AmountDue: "10.999"},
	}
	for _, req := range cases {
		rec := doJSON(t, srv, http.MethodPost, "/api/invoices", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestInvoices_ListStatusFilter(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "10.00", "INV-1")
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices?status=unpaid", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list dto.InvoiceListResponse
	decode(t, rec, &list)
	assert.Equal(t, 1, list.TotalCount)

	rec = doJSON(t, srv, http.MethodGet, "/api/invoices?status=paid", nil)
	decode(t, rec, &list)
	assert.Equal(t, 0, list.TotalCount)

	rec = doJSON(t, srv, http.MethodGet, "/api/invoices?status=overdue", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions_CreateAndGet(t *testing.T) {
	repo := storage.NewMockRepository()
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		Date:            "2025-06-02",
		Description:     "Payment received",
		Amount:          "1500.00",
		ReferenceNumber: "INV-001",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created dto.IDResponse
	decode(t, rec, &created)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var tx storage.BankTransaction
	decode(t, rec, &tx)
	assert.Equal(t, "Payment received", tx.Description)
	assert.Equal(t, storage.TransactionStatusUnmatched, tx.Status)

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactions_CreateWithAutoReconcile(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "1500.00", "INV-001")
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		Date:            "2025-06-02",
		Description:     "Payment received",
		Amount:          "1500.00",
		ReferenceNumber: "INV-001",
		AutoReconcile:   true,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var created dto.CreateTransactionResponse
	decode(t, rec, &created)
	require.NotNil(t, created.Reconciliation)
	assert.Equal(t, reconcile.StatusMatched, created.Reconciliation.Status)
	assert.Equal(t, 1.0, created.Reconciliation.Confidence)
}

func TestTransactions_CreateValidation(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository(), nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		Date:   "06/02/2025",
		Amount: "10.00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		Date:   "2025-06-02",
		Amount: "-1.00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Sub-cent precision would be silently rounded in storage; reject it.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		Date:   "2025-06-02",
		Amount: "10.999",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions_AmountRoundTripsExactly(t *testing.T) {
	repo := storage.NewMockRepository()
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", dto.CreateTransactionRequest{
		Date:   "2025-06-02",
		Amount: "10.9",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.CreateTransactionResponse
	decode(t, rec, &created)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tx storage.BankTransaction
	decode(t, rec, &tx)
	assert.Equal(t, "10.90", tx.Amount.StringFixed(2))
}

func TestReconcile_SingleTransaction(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "1500.00", "INV-001")
	tx := repo.AddTransaction("1500.00", "Payment received", "INV-001")
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/reconcile/transactions/%d", tx.ID), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var result reconcile.Result
	decode(t, rec, &result)
	assert.Equal(t, reconcile.StatusMatched, result.Status)
	assert.Equal(t, 1.0, result.Confidence)

	// A second attempt conflicts.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/reconcile/transactions/%d", tx.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var apiErr dto.APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, dto.ErrCodeConflict, apiErr.Code)
}

func TestReconcile_SingleUnknownTransaction(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository(), nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/reconcile/transactions/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcile_Bulk(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "10.00", "INV-1")
	repo.AddTransaction("10.00", "", "INV-1")
	repo.AddTransaction("77.00", "no match here", "")
	alerts := &stubAlerts{}
	srv := newTestServer(repo, alerts)

	rec := doJSON(t, srv, http.MethodPost, "/api/reconcile", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var summary reconcile.Summary
	decode(t, rec, &summary)
	assert.Equal(t, 2, summary.TotalProcessed)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Unmatched)
	assert.Equal(t, 1, alerts.calls)
}

func TestReconcile_BulkWithExplicitIDs(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "10.00", "INV-1")
	tx := repo.AddTransaction("10.00", "", "INV-1")
	repo.AddTransaction("20.00", "", "")
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/reconcile", dto.BulkReconcileRequest{
		TransactionIDs: []int64{tx.ID},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var summary reconcile.Summary
	decode(t, rec, &summary)
	assert.Equal(t, 1, summary.TotalProcessed)
}

func TestReconcile_Reprocess(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "10.00", "INV-1")
	tx := repo.AddTransaction("10.00", "", "INV-1")
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/reconcile/transactions/%d", tx.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/reconcile/transactions/%d/reprocess", tx.ID), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var result reconcile.Result
	decode(t, rec, &result)
	assert.Equal(t, reconcile.StatusMatched, result.Status)
}

func TestReconcile_ManualMatch(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	inv := repo.AddInvoice(acme, "500.00", "INV-500")
	tx := repo.AddTransaction("499.00", "Partial payment", "")
	srv := newTestServer(repo, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/reconcile/manual", dto.ManualMatchRequest{
		TransactionID: tx.ID,
		InvoiceID:     inv.ID,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var result reconcile.Result
	decode(t, rec, &result)
	assert.Equal(t, reconcile.StatusMatched, result.Status)
	assert.Equal(t, "Manual match by user", result.Reason)
}

func TestReconcile_ManualMatchValidation(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository(), nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/reconcile/manual", dto.ManualMatchRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcile_Stats(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "10.00", "INV-1")
	repo.AddTransaction("10.00", "", "INV-1")
	srv := newTestServer(repo, nil)

	doJSON(t, srv, http.MethodPost, "/api/reconcile", nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/reconcile/stats", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var stats reconcile.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.TotalTransactions)
	assert.Equal(t, 1, stats.MatchedTransactions)
	assert.InDelta(t, 1.0, stats.MatchRate, 1e-9)
}

func TestLogs_NewestFirst(t *testing.T) {
	repo := storage.NewMockRepository()
	acme := repo.AddCustomer("Acme Corp", "")
	repo.AddInvoice(acme, "10.00", "INV-1")
	repo.AddTransaction("10.00", "", "INV-1")
	repo.AddTransaction("55.00", "", "")
	srv := newTestServer(repo, nil)

	doJSON(t, srv, http.MethodPost, "/api/reconcile", nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/logs", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var list dto.LogListResponse
	decode(t, rec, &list)
	require.Equal(t, 2, list.TotalCount)
	assert.Greater(t, list.Logs[0].ID, list.Logs[1].ID)
}

func TestNotifications_ListAndCheck(t *testing.T) {
	repo := storage.NewMockRepository()
	alerts := &stubAlerts{outcome: notify.Outcome{Sent: false, Reason: "below threshold"}}
	srv := newTestServer(repo, alerts)

	rec := doJSON(t, srv, http.MethodGet, "/api/notifications", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list dto.NotificationListResponse
	decode(t, rec, &list)
	assert.Equal(t, 0, list.TotalCount)

	rec = doJSON(t, srv, http.MethodPost, "/api/notifications/check", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var outcome notify.Outcome
	decode(t, rec, &outcome)
	assert.False(t, outcome.Sent)
	assert.Equal(t, "below threshold", outcome.Reason)
}
