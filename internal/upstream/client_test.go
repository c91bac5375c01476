package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"report-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUsersAppliesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/users", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":[
			{"_id":"u1","name":"","email":"","role":"Customer","status":"","createdAt":"2024-01-02T10:00:00Z"},
			{"_id":"u2","name":"Bob","email":"b@x.io","role":"Vendor","status":"Suspended","createdAt":"2024-01-03T10:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, StaticToken("secret"), 5*time.Second)
	users, err := client.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, models.DefaultUserName, users[0].Name)
	assert.Equal(t, models.DefaultEmail, users[0].Email)
	assert.Equal(t, models.UserStatusActive, users[0].Status)

	// populated fields pass through untouched
	assert.Equal(t, "Bob", users[1].Name)
	assert.Equal(t, models.UserStatusSuspended, users[1].Status)
}

func TestGetSummarySendsRangeParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/report", r.URL.Path)
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("endDate"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRevenue":99.5,"revenueChange":-5,"totalOrders":3,"orderChange":0,"newUsers":1,"userChange":2}`))
	}))
	defer srv.Close()

	rng := models.DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	client := NewClient(srv.URL, StaticToken("secret"), 5*time.Second)
	summary, err := client.GetSummary(context.Background(), rng)
	require.NoError(t, err)

	assert.Equal(t, 99.5, summary.TotalRevenue)
	assert.Equal(t, -5.0, summary.RevenueChange)
	assert.Equal(t, rng.Start, summary.PeriodStart)
	assert.Equal(t, rng.End, summary.PeriodEnd)
}

func TestGetPaymentsKeepsUnresolvableUsersNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[
			{"_id":"p1","userId":null,"invoiceId":"inv-1","productTitle":"","amount":5,"status":"pending","createdAt":"2024-01-05T10:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, StaticToken("secret"), 5*time.Second)
	payments, err := client.GetPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 1)

	assert.Nil(t, payments[0].UserID)
	assert.Equal(t, models.DefaultProductTitle, payments[0].ProductTitle)
}

func TestErrorStatusSurfacesEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, StaticToken("expired"), 5*time.Second)
	_, err := client.GetOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/tasks/all")
}
