// Package licenseservice is the REST client for the tenant-licensing backend.
package licenseservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/entitleops/licensesync/internal/domain/entitlement"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/shared/config"
	"github.com/entitleops/licensesync/internal/shared/errors"
	"github.com/entitleops/licensesync/internal/shared/logger"
	"github.com/entitleops/licensesync/internal/shared/utils/logutil"
)

// maxErrorBody bounds the response body quoted in upstream errors.
const maxErrorBody = 200

// Tenant is a tenant summary from the tenant listing.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tenantListResponse struct {
	Tenants []Tenant `json:"tenants"`
}

type tenantEntitlementsResponse struct {
	Tenant       Tenant          `json:"tenant"`
	Entitlements json.RawMessage `json:"entitlements"`
}

// Client talks to the license service. Requests carry a client-credentials
// bearer token when a token URL is configured. No timeout is set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Interface
}

// NewClient creates a new license service client.
func NewClient(cfg config.LicenseServiceConfig, log logger.Interface) *Client {
	httpClient := &http.Client{}
	if cfg.Auth.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}
		httpClient = cc.Client(context.Background())
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

// ListTenants returns every tenant known to the license service.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	var resp tenantListResponse
	found, err := c.getJSON(ctx, "/api/v1/tenants", &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resp.Tenants, nil
}

// FetchTenantEntitlements resolves tenantKey by ID first, then by
// case-insensitive name. It returns nil, nil when no tenant matches.
func (c *Client) FetchTenantEntitlements(ctx context.Context, tenantKey string) (*reconciliation.TenantEntitlements, error) {
	key := strings.TrimSpace(tenantKey)
	if key == "" {
		return nil, nil
	}

	result, err := c.fetchByID(ctx, key)
	if err != nil || result != nil {
		return result, err
	}

	tenants, err := c.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tenants {
		if strings.EqualFold(strings.TrimSpace(t.Name), key) && t.ID != key {
			c.logger.Debugw("resolved tenant by name", "tenant_key", key, "tenant_id", t.ID)
			return c.fetchByID(ctx, t.ID)
		}
	}

	c.logger.Infow("tenant not found in license service", "tenant_key", key)
	return nil, nil
}

func (c *Client) fetchByID(ctx context.Context, id string) (*reconciliation.TenantEntitlements, error) {
	var resp tenantEntitlementsResponse
	found, err := c.getJSON(ctx, "/api/v1/tenants/"+url.PathEscape(id)+"/entitlements", &resp)
	if err != nil || !found {
		return nil, err
	}

	raw, err := entitlement.DecodeRawSet(resp.Entitlements)
	if err != nil {
		return nil, errors.NewUpstreamError("license service returned malformed entitlements", err)
	}

	tenantID := resp.Tenant.ID
	if tenantID == "" {
		tenantID = id
	}
	return &reconciliation.TenantEntitlements{
		TenantID:     tenantID,
		TenantName:   resp.Tenant.Name,
		Entitlements: raw,
	}, nil
}

// getJSON decodes a 200 response into out. A 404 reports found=false.
func (c *Client) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.NewUpstreamError("license service request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, errors.NewUpstreamError("license service authentication expired",
			fmt.Errorf("status %d on %s", resp.StatusCode, path))
	case resp.StatusCode != http.StatusOK:
		return false, errors.NewUpstreamError("license service request failed",
			fmt.Errorf("status %d on %s: %s", resp.StatusCode, path, logutil.ReadBody(resp.Body, maxErrorBody)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return false, errors.NewUpstreamError("license service returned an unreadable response", err)
	}
	return true, nil
}
