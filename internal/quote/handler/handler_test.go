package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	customermodels "coverbase/internal/customer/models"
	customerstore "coverbase/internal/customer/store"
	"coverbase/internal/platform/metrics"
	policymodels "coverbase/internal/policy/models"
	"coverbase/internal/quote/models"
	"coverbase/internal/quote/service"
	quotestore "coverbase/internal/quote/store"
)

var testMetrics = metrics.New()

type fakeLedger struct {
	created []*policymodels.Policy
}

func (f *fakeLedger) CreateFromQuote(_ context.Context, quote *models.Quote, _ *customermodels.Customer) (*policymodels.Policy, error) {
	policy := &policymodels.Policy{ID: int64(len(f.created) + 1), QuoteID: quote.ID}
	f.created = append(f.created, policy)
	return policy, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	router    http.Handler
	customers *customerstore.InMemoryStore
	ledger    *fakeLedger
}

func newFixture() *fixture {
	customers := customerstore.NewInMemory()
	quotes := quotestore.NewInMemory()
	ledger := &fakeLedger{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.NewService(quotes, customers, ledger, passthroughTx{}, true, logger, testMetrics)

	r := chi.NewRouter()
	h := New(svc, logger)
	r.Post("/v1/quotes", h.Create)
	r.Put("/v1/quotes/{id}/status", h.UpdateStatus)
	return &fixture{router: r, customers: customers, ledger: ledger}
}

func (f *fixture) seedCustomer(t *testing.T) *customermodels.Customer {
	t.Helper()
	dob, err := time.Parse(customermodels.DOBFormat, "25-06-1991")
	require.NoError(t, err)
	customer := &customermodels.Customer{FirstName: "John", LastName: "Doe", DateOfBirth: dob}
	require.NoError(t, f.customers.Create(context.Background(), customer))
	return customer
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func TestCreateQuote(t *testing.T) {
	f := newFixture()
	customer := f.seedCustomer(t)

	body := fmt.Sprintf(`{"customer_id": %d, "type": "personal-accident"}`, customer.ID)
	rec := f.do(t, http.MethodPost, "/v1/quotes", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	quote := decode(t, rec)
	require.Equal(t, float64(1), quote["id"])
	require.Equal(t, "new", quote["status"])
	require.Equal(t, "personal-accident", quote["type"])
	// The customer is 34 at the time of writing; the middle age band holds
	// until 2041.
	require.Equal(t, "22000.00", quote["cover"])
	require.Equal(t, "300.00", quote["premium"])

	nested, ok := quote["customer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "John", nested["first_name"])
	require.Equal(t, "25-06-1991", nested["dob"])

	// Quote creation opened the policy shell in the same transaction.
	require.Len(t, f.ledger.created, 1)
	require.Equal(t, int64(1), f.ledger.created[0].QuoteID)
}

func TestCreateQuoteValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		detail any
	}{
		{
			name:   "unknown customer",
			body:   `{"customer_id": 99, "type": "auto"}`,
			status: http.StatusNotFound,
			detail: "customer not found",
		},
		{
			name:   "unknown type",
			body:   `{"customer_id": 1, "type": "boat"}`,
			status: http.StatusUnprocessableEntity,
			detail: map[string]any{"type": "invalid type specified"},
		},
		{
			name:   "missing customer id",
			body:   `{"type": "auto"}`,
			status: http.StatusUnprocessableEntity,
			detail: map[string]any{"customer_id": "this field is required"},
		},
		{
			name:   "malformed body",
			body:   `{"customer_id": `,
			status: http.StatusUnprocessableEntity,
			detail: "request body is malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seedCustomer(t)

			rec := f.do(t, http.MethodPost, "/v1/quotes", tt.body)
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.detail, decode(t, rec)["detail"])
		})
	}
}

func TestUpdateQuoteStatus(t *testing.T) {
	f := newFixture()
	customer := f.seedCustomer(t)

	body := fmt.Sprintf(`{"customer_id": %d, "type": "auto"}`, customer.ID)
	rec := f.do(t, http.MethodPost, "/v1/quotes", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPut, "/v1/quotes/1/status", `{"status": "accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "accepted", decode(t, rec)["status"])

	rec = f.do(t, http.MethodPut, "/v1/quotes/1/status", `{"status": "active"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "active", decode(t, rec)["status"])
}

func TestUpdateQuoteStatusErrors(t *testing.T) {
	f := newFixture()
	customer := f.seedCustomer(t)
	body := fmt.Sprintf(`{"customer_id": %d, "type": "auto"}`, customer.ID)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/quotes", body).Code)

	t.Run("illegal transition", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/quotes/1/status", `{"status": "active"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, map[string]any{"status": "cannot transition from new to active"}, decode(t, rec)["detail"])
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/quotes/1/status", `{"status": "expired"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, map[string]any{"status": "invalid status specified"}, decode(t, rec)["detail"])
	})

	t.Run("unknown quote", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/quotes/42/status", `{"status": "accepted"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "quote not found", decode(t, rec)["detail"])
	})

	t.Run("non-integer id", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/quotes/abc/status", `{"status": "accepted"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "quote not found", decode(t, rec)["detail"])
	})
}
