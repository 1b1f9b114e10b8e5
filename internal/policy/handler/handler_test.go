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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	customermodels "coverbase/internal/customer/models"
	customerstore "coverbase/internal/customer/store"
	"coverbase/internal/outbox"
	"coverbase/internal/platform/metrics"
	"coverbase/internal/policy/service"
	policystore "coverbase/internal/policy/store"
	quotemodels "coverbase/internal/quote/models"
	quotestore "coverbase/internal/quote/store"
)

var testMetrics = metrics.New()

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	router    http.Handler
	svc       *service.Service
	customers *customerstore.InMemoryStore
	quotes    *quotestore.InMemoryStore
}

func newFixture(strictCursors bool) *fixture {
	customers := customerstore.NewInMemory()
	quotes := quotestore.NewInMemory()
	policies := policystore.NewInMemory(customers, quotes)
	events := outbox.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.NewService(policies, events, passthroughTx{}, nil, logger, testMetrics)

	r := chi.NewRouter()
	h := New(svc, strictCursors, logger)
	r.Get("/v1/policies", h.List)
	r.Get("/v1/policies/{id}", h.Get)
	r.Put("/v1/policies/{id}/state", h.UpdateState)
	r.Get("/v1/policies/{id}/history", h.History)
	return &fixture{router: r, svc: svc, customers: customers, quotes: quotes}
}

func (f *fixture) seedCustomer(t *testing.T) *customermodels.Customer {
	t.Helper()
	dob, err := time.Parse(customermodels.DOBFormat, "25-06-1991")
	require.NoError(t, err)
	customer := &customermodels.Customer{FirstName: "John", LastName: "Doe", DateOfBirth: dob}
	require.NoError(t, f.customers.Create(context.Background(), customer))
	return customer
}

func (f *fixture) seedPolicy(t *testing.T, customer *customermodels.Customer) int64 {
	t.Helper()
	ctx := context.Background()
	quote := &quotemodels.Quote{
		Status:     quotemodels.StatusNew,
		Type:       quotemodels.TypeAuto,
		Premium:    decimal.NewFromInt(450),
		Cover:      decimal.NewFromInt(33000),
		CustomerID: customer.ID,
	}
	require.NoError(t, f.quotes.Create(ctx, quote))
	policy, err := f.svc.CreateFromQuote(ctx, quote, customer)
	require.NoError(t, err)
	return policy.ID
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

func TestGetPolicy(t *testing.T) {
	f := newFixture(false)
	customer := f.seedCustomer(t)
	policyID := f.seedPolicy(t, customer)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/v1/policies/%d", policyID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	policy := decode(t, rec)
	require.Equal(t, float64(policyID), policy["id"])
	require.Equal(t, "quoted", policy["state"])
	require.Equal(t, "auto", policy["type"])
	require.Equal(t, "450.00", policy["premium"])
	require.Equal(t, "33000.00", policy["cover"])

	nested, ok := policy["customer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "25-06-1991", nested["dob"])
	quote, ok := policy["quote"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "new", quote["status"])
}

func TestGetPolicyNotFound(t *testing.T) {
	f := newFixture(false)

	for _, path := range []string{"/v1/policies/42", "/v1/policies/abc"} {
		rec := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "policy not found", decode(t, rec)["detail"])
	}
}

func TestListRequiresCustomerID(t *testing.T) {
	f := newFixture(false)

	for _, path := range []string{"/v1/policies", "/v1/policies?customer_id=abc"} {
		rec := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "customer not found", decode(t, rec)["detail"])
	}
}

type listPage struct {
	Policies   []map[string]any `json:"policies"`
	NextCursor *int64           `json:"next_cursor"`
}

func (f *fixture) listPage(t *testing.T, query string) listPage {
	t.Helper()
	rec := f.do(t, http.MethodGet, "/v1/policies?"+query, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page listPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func TestListPolicies(t *testing.T) {
	f := newFixture(false)
	customer := f.seedCustomer(t)
	for i := 0; i < 5; i++ {
		f.seedPolicy(t, customer)
	}
	other := f.seedCustomer(t)
	f.seedPolicy(t, other)

	base := fmt.Sprintf("customer_id=%d&per_page=2", customer.ID)

	// Walk the whole stream: pages are disjoint, ordered, and cover all rows.
	var seen []float64
	page := f.listPage(t, base)
	for {
		for _, policy := range page.Policies {
			seen = append(seen, policy["id"].(float64))
		}
		if page.NextCursor == nil {
			break
		}
		page = f.listPage(t, fmt.Sprintf("%s&next_cursor=%d", base, *page.NextCursor))
	}
	require.Equal(t, []float64{1, 2, 3, 4, 5}, seen)

	// The other customer's stream is scoped to their single policy.
	page = f.listPage(t, fmt.Sprintf("customer_id=%d", other.ID))
	require.Len(t, page.Policies, 1)
	require.Equal(t, float64(6), page.Policies[0]["id"])
	require.Nil(t, page.NextCursor)
}

func TestListCursorHandling(t *testing.T) {
	f := newFixture(false)
	customer := f.seedCustomer(t)
	for i := 0; i < 3; i++ {
		f.seedPolicy(t, customer)
	}

	t.Run("lenient mode restarts on unparsable cursor", func(t *testing.T) {
		page := f.listPage(t, fmt.Sprintf("customer_id=%d&next_cursor=abc", customer.ID))
		require.Len(t, page.Policies, 3)
		require.Equal(t, float64(1), page.Policies[0]["id"])
	})

	t.Run("strict mode rejects unparsable cursor", func(t *testing.T) {
		strict := newFixture(true)
		strictCustomer := strict.seedCustomer(t)
		rec := strict.do(t, http.MethodGet, fmt.Sprintf("/v1/policies?customer_id=%d&next_cursor=abc", strictCustomer.ID), "")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "query parameter next_cursor must be an integer", decode(t, rec)["detail"])
	})

	t.Run("per_page must be an integer", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, fmt.Sprintf("/v1/policies?customer_id=%d&per_page=abc", customer.ID), "")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "query parameter per_page must be an integer", decode(t, rec)["detail"])
	})

	t.Run("per_page is clamped", func(t *testing.T) {
		page := f.listPage(t, fmt.Sprintf("customer_id=%d&per_page=0", customer.ID))
		require.Len(t, page.Policies, 1)
		require.NotNil(t, page.NextCursor)
	})
}

func TestUpdatePolicyState(t *testing.T) {
	f := newFixture(false)
	customer := f.seedCustomer(t)
	policyID := f.seedPolicy(t, customer)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/policies/%d/state", policyID), `{"state": "bound"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "bound", decode(t, rec)["state"])

	t.Run("unknown state", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/policies/%d/state", policyID), `{"state": "cancelled"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, map[string]any{"state": "invalid state specified"}, decode(t, rec)["detail"])
	})

	t.Run("unknown policy", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/policies/42/state", `{"state": "bound"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "policy not found", decode(t, rec)["detail"])
	})
}

type historyPage struct {
	History    []map[string]any `json:"history"`
	NextCursor *int64           `json:"next_cursor"`
}

func (f *fixture) historyPage(t *testing.T, policyID int64, query string) historyPage {
	t.Helper()
	rec := f.do(t, http.MethodGet, fmt.Sprintf("/v1/policies/%d/history?%s", policyID, query), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page historyPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func TestPolicyHistory(t *testing.T) {
	f := newFixture(false)
	customer := f.seedCustomer(t)
	policyID := f.seedPolicy(t, customer)

	for _, state := range []string{"new", "bound"} {
		rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/policies/%d/state", policyID), fmt.Sprintf(`{"state": %q}`, state))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	page := f.historyPage(t, policyID, "per_page=2")
	require.Len(t, page.History, 2)
	require.Equal(t, "bound", page.History[0]["state"])
	require.Equal(t, "new", page.History[1]["state"])
	require.NotNil(t, page.NextCursor)

	// The snapshot captures the state at transition time; the nested policy is current.
	dump, ok := page.History[1]["object_json_dump"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "new", dump["state"])
	current, ok := page.History[1]["policy"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "bound", current["state"])

	page = f.historyPage(t, policyID, fmt.Sprintf("per_page=2&next_cursor=%d", *page.NextCursor))
	require.Len(t, page.History, 1)
	require.Equal(t, "quoted", page.History[0]["state"])
	require.Nil(t, page.NextCursor)
}

func TestPolicyHistoryNotFound(t *testing.T) {
	f := newFixture(false)

	rec := f.do(t, http.MethodGet, "/v1/policies/42/history", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "policy not found", decode(t, rec)["detail"])
}
