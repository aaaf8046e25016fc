package provisioning

import (
	"context"
	"strings"

	"github.com/entitleops/licensesync/internal/domain/reconciliation"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// RecordFinder looks a record up remotely.
type RecordFinder interface {
	FindRecord(ctx context.Context, key string) (*reconciliation.ProvisioningRecord, error)
}

// RecordCache stores records by lookup key.
type RecordCache interface {
	Get(ctx context.Context, key string) (*reconciliation.ProvisioningRecord, error)
	Set(ctx context.Context, key string, record *reconciliation.ProvisioningRecord) error
}

// CachedFinder serves records from the cache unless a fresh copy is
// requested, and refreshes the cache after every remote lookup. Cache
// failures are logged and fall through to the remote query.
type CachedFinder struct {
	finder RecordFinder
	cache  RecordCache
	logger logger.Interface
}

// NewCachedFinder creates a CachedFinder. A nil cache disables caching.
func NewCachedFinder(finder RecordFinder, cache RecordCache, log logger.Interface) *CachedFinder {
	return &CachedFinder{
		finder: finder,
		cache:  cache,
		logger: log,
	}
}

func (f *CachedFinder) FindRecord(ctx context.Context, key string, forceFresh bool) (*reconciliation.ProvisioningRecord, error) {
	key = strings.TrimSpace(key)

	if f.cache != nil && !forceFresh {
		rec, err := f.cache.Get(ctx, key)
		if err != nil {
			f.logger.Warnw("provisioning cache read failed", "record_key", key, "error", err)
		} else if rec != nil {
			f.logger.Debugw("provisioning record served from cache", "record_key", key)
			return rec, nil
		}
	}

	rec, err := f.finder.FindRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil || f.cache == nil {
		return rec, nil
	}

	if err := f.cache.Set(ctx, key, rec); err != nil {
		f.logger.Warnw("provisioning cache write failed", "record_key", key, "error", err)
	}
	return rec, nil
}
