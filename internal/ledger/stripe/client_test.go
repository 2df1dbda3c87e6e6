package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/civicdash/internal/config"
	"github.com/smallbiznis/civicdash/internal/ledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newClient(config.StripeConfig{
		SecretKey: "sk_test_123",
		AccountID: "acct_42",
		BaseURL:   srv.URL + "/",
	}, srv.Client())
}

func TestListInvoicesSendsFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/invoices", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "acct_42", r.Header.Get("Stripe-Account"))

		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "paid", q.Get("status"))
		assert.Equal(t, "1704067200", q.Get("created[gte]"))
		assert.Equal(t, "1735689599", q.Get("created[lte]"))
		assert.Equal(t, "in_prev", q.Get("starting_after"))

		_, _ = w.Write([]byte(`{"data":[],"has_more":false}`))
	})

	page, err := client.ListInvoices(context.Background(), domain.ListInvoicesRequest{
		Status:  domain.StatusPaid,
		Created: &domain.TimeRange{From: from, To: to},
		Cursor:  "in_prev",
	})

	require.NoError(t, err)
	assert.Empty(t, page.Invoices)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}

func TestListInvoicesDecodesPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"has_more": true,
			"data": [
				{
					"id": "in_1",
					"amount_paid": 12000,
					"currency": "usd",
					"subscription": "sub_1",
					"created": 1715299200,
					"status_transitions": {"paid_at": 1715385600},
					"lines": {"data": [{"price": {"id": "price_1", "product": "prod_a"}}]}
				},
				{
					"id": "in_2",
					"amount_paid": 500,
					"currency": "usd",
					"subscription": null,
					"created": 1715299200,
					"status_transitions": {"paid_at": null},
					"lines": {"data": [{"price": {"id": "price_2", "product": {"id": "prod_b", "object": "product"}}}]}
				}
			]
		}`))
	})

	page, err := client.ListInvoices(context.Background(), domain.ListInvoicesRequest{})
	require.NoError(t, err)

	require.Len(t, page.Invoices, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "in_2", page.NextCursor)

	first := page.Invoices[0]
	assert.Equal(t, "in_1", first.ID)
	assert.Equal(t, int64(12000), first.AmountPaid)
	assert.Equal(t, "USD", first.Currency)
	assert.True(t, first.HasSubscription())
	require.NotNil(t, first.PaidAt)
	assert.Equal(t, time.Unix(1715385600, 0).UTC(), first.SettledAt())
	product, ok := first.PrimaryProductID()
	assert.True(t, ok)
	assert.Equal(t, "prod_a", product)

	second := page.Invoices[1]
	assert.False(t, second.HasSubscription())
	assert.Nil(t, second.PaidAt)
	assert.Equal(t, time.Unix(1715299200, 0).UTC(), second.SettledAt())
	product, ok = second.PrimaryProductID()
	assert.True(t, ok)
	assert.Equal(t, "prod_b", product)
}

func TestListInvoicesMapsProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key provided"}}`))
	})

	_, err := client.ListInvoices(context.Background(), domain.ListInvoicesRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "Invalid API Key provided")
}

func TestListInvoicesRejectsMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.ListInvoices(context.Background(), domain.ListInvoicesRequest{})

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestListInvoicesRequiresSecretKey(t *testing.T) {
	client := NewClient(config.StripeConfig{})

	_, err := client.ListInvoices(context.Background(), domain.ListInvoicesRequest{})

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestNewClientClampsPageSize(t *testing.T) {
	assert.Equal(t, 100, NewClient(config.StripeConfig{PageSize: 1000}).pageSize)
	assert.Equal(t, 25, NewClient(config.StripeConfig{PageSize: 25}).pageSize)
	assert.Equal(t, defaultBaseURL, NewClient(config.StripeConfig{}).baseURL)
}
