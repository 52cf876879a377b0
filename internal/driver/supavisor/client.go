package supavisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vantigo/teamdb/internal/errs"
)

const (
	controlTimeout  = 15 * time.Second
	defaultPoolSize = 5

	// All tenants run in transaction pooling mode: the proxy multiplexes
	// many tenant connections over a small shared backend pool.
	poolModeTransaction = "transaction"
)

// tenantRequest is the control-plane body for PUT /api/tenants.
type tenantRequest struct {
	Tenant tenantSpec `json:"tenant"`
}

type tenantSpec struct {
	DBHost      string       `json:"db_host"`
	DBPort      int          `json:"db_port"`
	DBDatabase  string       `json:"db_database"`
	ExternalID  string       `json:"external_id"`
	RequireUser bool         `json:"require_user"`
	UpstreamSSL bool         `json:"upstream_ssl"`
	Users       []tenantUser `json:"users"`
}

type tenantUser struct {
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	ModeType   string `json:"mode_type"`
	PoolSize   int    `json:"pool_size"`
	IsManager  bool   `json:"is_manager"`
}

// controlClient issues the proxy's HTTP control-plane calls with bearer
// token auth. Data-plane reads never go through it — they connect straight
// to the pooled endpoint.
type controlClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newControlClient(baseURL, token string) *controlClient {
	return &controlClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: controlTimeout},
	}
}

func (c *controlClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to encode control-plane request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExternal, "failed to build control-plane request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExternal, "control-plane request failed", err)
	}
	return resp, nil
}

// health probes the proxy. Used only during Init, where a failure is logged
// rather than returned.
func (c *controlClient) health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errs.Newf(errs.ErrKindExternal, "proxy health check returned %d", resp.StatusCode)
	}
	return nil
}

// tenantExists reports whether the proxy already knows the tenant. This is
// the data-plane duplicate check — independent of the object-store record,
// because the two can disagree after partial failures.
func (c *controlClient) tenantExists(ctx context.Context, tenantKey string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/tenants/"+tenantKey, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 300:
		return true, nil
	default:
		return false, errs.Newf(errs.ErrKindExternal,
			"proxy tenant lookup returned %d", resp.StatusCode)
	}
}

// createTenant registers the tenant with the pooling proxy.
func (c *controlClient) createTenant(ctx context.Context, req tenantRequest) error {
	resp, err := c.do(ctx, http.MethodPut, "/api/tenants", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errs.Newf(errs.ErrKindExternal,
			"proxy rejected tenant create: %s", responseDetail(resp))
	}
	return nil
}

// deleteTenant removes the tenant from the proxy. Returns found=false when
// the proxy reports the tenant is already gone (HTTP 404); any other
// failure is returned so the caller can decide whether to keep the record.
func (c *controlClient) deleteTenant(ctx context.Context, tenantKey string) (found bool, err error) {
	resp, err := c.do(ctx, http.MethodDelete, "/api/tenants/"+tenantKey, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 300:
		return true, nil
	default:
		return false, errs.Newf(errs.ErrKindExternal,
			"proxy rejected tenant delete: %s", responseDetail(resp))
	}
}

func responseDetail(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(body) == 0 {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, body)
}
