package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const documentLockKeyPrefix = "licensesync:lock:document:"

// ErrDocumentLocked is returned when another instance is processing the document.
var ErrDocumentLocked = errors.New("document is locked by another instance")

// DocumentLocker serializes request processing per document across service
// instances. The lock expires after ttl if its holder dies.
type DocumentLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewDocumentLocker creates a new DocumentLocker.
func NewDocumentLocker(client *redis.Client, ttl time.Duration) *DocumentLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DocumentLocker{
		locker: redislock.New(client),
		ttl:    ttl,
	}
}

// Acquire takes the lock for documentID without waiting. The returned
// release function is safe to call once the lock has expired.
func (l *DocumentLocker) Acquire(ctx context.Context, documentID string) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, documentLockKeyPrefix+documentID, l.ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrDocumentLocked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain document lock: %w", err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && err != redislock.ErrLockNotHeld {
			return fmt.Errorf("failed to release document lock: %w", err)
		}
		return nil
	}, nil
}
