// Package provisioning queries the CRM for provisioning records.
package provisioning

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

type queryResponse struct {
	TotalSize int                          `json:"totalSize"`
	Done      bool                         `json:"done"`
	Records   []map[string]json.RawMessage `json:"records"`
}

// Client runs CRM REST queries. No timeout is set.
type Client struct {
	instanceURL       string
	apiVersion        string
	objectName        string
	tenantNameField   string
	entitlementsField string
	httpClient        *http.Client
	logger            logger.Interface
}

// NewClient creates a CRM query client authenticated with client credentials.
func NewClient(cfg config.ProvisioningConfig, log logger.Interface) *Client {
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
		instanceURL:       strings.TrimRight(cfg.InstanceURL, "/"),
		apiVersion:        cfg.APIVersion,
		objectName:        cfg.ObjectName,
		tenantNameField:   cfg.TenantNameField,
		entitlementsField: cfg.EntitlementsField,
		httpClient:        httpClient,
		logger:            log,
	}
}

// FindRecord looks a record up by ID or name. It returns nil, nil when none matches.
func (c *Client) FindRecord(ctx context.Context, key string) (*reconciliation.ProvisioningRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}

	soql := c.buildQuery(key)
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.instanceURL, c.apiVersion, url.QueryEscape(soql))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("provisioning query failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.NewUpstreamError("provisioning authentication expired",
			fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamError("provisioning query failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, logutil.ReadBody(resp.Body, maxErrorBody)))
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, errors.NewUpstreamError("provisioning query returned an unreadable response", err)
	}
	if len(qr.Records) == 0 {
		c.logger.Infow("provisioning record not found", "record_key", key)
		return nil, nil
	}
	if len(qr.Records) > 1 {
		c.logger.Warnw("multiple provisioning records matched, using the first",
			"record_key", key,
			"matches", len(qr.Records),
		)
	}
	return c.toRecord(qr.Records[0])
}

func (c *Client) buildQuery(key string) string {
	quoted := quoteSOQL(key)
	return fmt.Sprintf("SELECT Id, Name, %s, %s FROM %s WHERE Id = %s OR Name = %s LIMIT 2",
		c.tenantNameField, c.entitlementsField, c.objectName, quoted, quoted)
}

func (c *Client) toRecord(fields map[string]json.RawMessage) (*reconciliation.ProvisioningRecord, error) {
	rec := &reconciliation.ProvisioningRecord{
		RecordID: stringField(fields, "Id"),
		Name:     stringField(fields, "Name"),
	}
	if raw, ok := fields[c.tenantNameField]; ok && !isNull(raw) {
		name := stringField(fields, c.tenantNameField)
		rec.TenantName = &name
	}

	payload, err := entitlementPayload(fields[c.entitlementsField])
	if err != nil {
		return nil, errors.NewUpstreamError("provisioning record has malformed entitlements", err)
	}
	set, err := entitlement.DecodeRawSet(payload)
	if err != nil {
		return nil, errors.NewUpstreamError("provisioning record has malformed entitlements", err)
	}
	rec.Entitlements = set
	return rec, nil
}

// entitlementPayload accepts the field either as a JSON object or as a
// long-text field holding JSON.
func entitlementPayload(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []byte(text), nil
	}
	return raw, nil
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// quoteSOQL renders a SOQL string literal.
func quoteSOQL(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
