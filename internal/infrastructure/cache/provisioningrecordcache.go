package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/entitleops/licensesync/internal/domain/entitlement"
	"github.com/entitleops/licensesync/internal/domain/reconciliation"
)

const (
	provisioningRecordKeyPrefix = "licensesync:provisioning:record:"

	// DefaultProvisioningRecordTTL applies when no TTL is configured.
	DefaultProvisioningRecordTTL = 30 * time.Minute
)

type cachedProvisioningRecord struct {
	RecordID     string                        `json:"record_id"`
	Name         string                        `json:"name"`
	TenantName   *string                       `json:"tenant_name"`
	Entitlements entitlement.RawEntitlementSet `json:"entitlements"`
	CachedAt     time.Time                     `json:"cached_at"`
}

// ProvisioningRecordCache keeps recently fetched provisioning records in Redis.
type ProvisioningRecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProvisioningRecordCache creates a new ProvisioningRecordCache.
func NewProvisioningRecordCache(client *redis.Client, ttl time.Duration) *ProvisioningRecordCache {
	if ttl <= 0 {
		ttl = DefaultProvisioningRecordTTL
	}
	return &ProvisioningRecordCache{client: client, ttl: ttl}
}

func provisioningRecordKey(key string) string {
	return provisioningRecordKeyPrefix + strings.ToLower(strings.TrimSpace(key))
}

// Get returns nil, nil on a cache miss.
func (c *ProvisioningRecordCache) Get(ctx context.Context, key string) (*reconciliation.ProvisioningRecord, error) {
	val, err := c.client.Get(ctx, provisioningRecordKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get provisioning record %s: %w", key, err)
	}

	var cached cachedProvisioningRecord
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	if err := dec.Decode(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached provisioning record %s: %w", key, err)
	}
	return &reconciliation.ProvisioningRecord{
		RecordID:     cached.RecordID,
		Name:         cached.Name,
		TenantName:   cached.TenantName,
		Entitlements: cached.Entitlements,
	}, nil
}

// Set stores a record under its lookup key.
func (c *ProvisioningRecordCache) Set(ctx context.Context, key string, record *reconciliation.ProvisioningRecord) error {
	if record == nil {
		return nil
	}
	payload, err := json.Marshal(cachedProvisioningRecord{
		RecordID:     record.RecordID,
		Name:         record.Name,
		TenantName:   record.TenantName,
		Entitlements: record.Entitlements,
		CachedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode provisioning record %s: %w", key, err)
	}
	if err := c.client.Set(ctx, provisioningRecordKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache provisioning record %s: %w", key, err)
	}
	return nil
}

// Invalidate drops a cached record.
func (c *ProvisioningRecordCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, provisioningRecordKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate provisioning record %s: %w", key, err)
	}
	return nil
}
