package supavisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantigo/teamdb/internal/errs"
)

func TestControlClient_BearerAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newControlClient(srv.URL, "tok-123")
	require.NoError(t, c.health(context.Background()))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestControlClient_HealthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newControlClient(srv.URL, "tok")
	err := c.health(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
}

func TestControlClient_TenantExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tenants/team_1":
			w.WriteHeader(http.StatusOK)
		case "/api/tenants/team_2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newControlClient(srv.URL, "tok")
	ctx := context.Background()

	exists, err := c.tenantExists(ctx, "team_1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.tenantExists(ctx, "team_2")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.tenantExists(ctx, "team_3")
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
}

func TestControlClient_CreateTenant(t *testing.T) {
	var got tenantRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/tenants", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newControlClient(srv.URL, "tok")
	err := c.createTenant(context.Background(), tenantRequest{Tenant: tenantSpec{
		DBHost:      "backend",
		DBPort:      5432,
		DBDatabase:  "team_1",
		ExternalID:  "team_1",
		RequireUser: true,
		Users: []tenantUser{{
			DBUser:     "team_1",
			DBPassword: "pw",
			ModeType:   poolModeTransaction,
			PoolSize:   defaultPoolSize,
			IsManager:  true,
		}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "team_1", got.Tenant.ExternalID)
	assert.True(t, got.Tenant.RequireUser)
	require.Len(t, got.Tenant.Users, 1)
	assert.Equal(t, "transaction", got.Tenant.Users[0].ModeType)
	assert.True(t, got.Tenant.Users[0].IsManager)
}

func TestControlClient_CreateTenant_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"db_host is invalid"}`))
	}))
	defer srv.Close()

	c := newControlClient(srv.URL, "tok")
	err := c.createTenant(context.Background(), tenantRequest{})
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
	assert.Contains(t, err.Error(), "db_host is invalid")
}

func TestControlClient_DeleteTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/api/tenants/team_1":
			w.WriteHeader(http.StatusNoContent)
		case "/api/tenants/team_2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newControlClient(srv.URL, "tok")
	ctx := context.Background()

	found, err := c.deleteTenant(ctx, "team_1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = c.deleteTenant(ctx, "team_2")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = c.deleteTenant(ctx, "team_3")
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
}
