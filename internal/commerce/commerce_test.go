package commerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-backend/internal/model"
)

func TestCin7FetchCustomers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/Contacts", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("rows"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "acme", user)
		assert.Equal(t, "key123", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":41,"firstName":"Amara","lastName":"Okafor","email":"amara@example.com","city":"Nairobi"},
			{"id":42,"firstName":"Jonas","lastName":"","email":"","phone":"0700000000"}
		]`))
	}))
	defer srv.Close()

	client := NewCin7Client(srv.URL, "acme", "key123")
	customers, err := client.FetchCustomers(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "41", customers[0].ExternalID)
	assert.Equal(t, model.SourceCin7, customers[0].Source)
	assert.Equal(t, "amara@example.com", customers[0].Email)
	assert.Equal(t, "Nairobi", customers[0].City)
	assert.Equal(t, "0700000000", customers[1].Phone)
}

func TestCin7FetchOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/SalesOrders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":7,"reference":"SO-311","memberId":41,"status":"DISPATCHED","total":120.5,"currencyCode":"KES","createdDate":"2026-03-14T10:00:00Z"},
			{"id":8,"reference":"SO-312","memberId":41,"status":"NEW","total":10,"createdDate":"2026-03-15T08:30:00"},
			{"id":9,"reference":"SO-313","memberId":41,"status":"NEW","total":10,"createdDate":"not-a-date"}
		]`))
	}))
	defer srv.Close()

	client := NewCin7Client(srv.URL, "acme", "key123")
	orders, err := client.FetchOrders(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, orders, 2) // the unparseable date row is skipped

	assert.Equal(t, "SO-311", orders[0].Number)
	assert.Equal(t, "41", orders[0].CustomerExternalID)
	assert.Equal(t, 120.5, orders[0].Total)
	assert.Equal(t, "KES", orders[0].Currency)
	assert.Equal(t, time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC), orders[0].PlacedAt)
	assert.Equal(t, "USD", orders[1].Currency) // default when the API omits it
}

func TestWooFetchCustomersAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ck_1", r.URL.Query().Get("consumer_key"))
		assert.Equal(t, "cs_1", r.URL.Query().Get("consumer_secret"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/wp-json/wc/v3/customers":
			w.Write([]byte(`[
				{"id":12,"email":"jonas@example.com","first_name":"Jonas","last_name":"Mwangi","billing":{"phone":"0711","city":"Mombasa"}}
			]`))
		case "/wp-json/wc/v3/orders":
			w.Write([]byte(`[
				{"id":99,"number":"2041","customer_id":12,"status":"completed","total":"85.50","currency":"KES","date_created_gmt":"2026-04-01T09:15:00"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewWooClient(srv.URL, "ck_1", "cs_1")

	customers, err := client.FetchCustomers(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "12", customers[0].ExternalID)
	assert.Equal(t, model.SourceWooCommerce, customers[0].Source)
	assert.Equal(t, "Mombasa", customers[0].City)

	orders, err := client.FetchOrders(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "2041", orders[0].Number)
	assert.Equal(t, 85.5, orders[0].Total)
	assert.Equal(t, "12", orders[0].CustomerExternalID)
}

func TestCin7FetchCustomersServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewCin7Client(srv.URL, "acme", "bad-key")
	_, err := client.FetchCustomers(context.Background(), 1, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
