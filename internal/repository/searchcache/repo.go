// Package searchcache stores ranked search results keyed by query hash and region.
package searchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/zokey/internal/db"
	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
)

// DefaultTTL is how long a cached result is served.
const DefaultTTL = time.Hour

// store is the consumer interface for the search cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type record struct {
	product.Result
	ExpiresAt time.Time `json:"expires_at"`
}

// Repo reads and writes cache entries.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a Repo. keyPrefix namespaces keys, e.g. "zokey:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix, now: time.Now}
}

// Get returns the cached result for (hash, region). ok is false when no entry
// exists or the stored entry is past its expiry. Store failures and corrupt
// payloads are reported as domain.ErrCacheUnavailable.
func (r *Repo) Get(ctx context.Context, hash, region string) (product.Result, bool, error) {
	data, err := r.store.Get(ctx, r.key(hash, region))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return product.Result{}, false, nil
		}
		return product.Result{}, false, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return product.Result{}, false, fmt.Errorf("%w: decode entry: %w", domain.ErrCacheUnavailable, err)
	}
	if !r.now().Before(rec.ExpiresAt) {
		return product.Result{}, false, nil
	}
	return rec.Result, true, nil
}

// Put upserts the result with expires_at = now + ttl.
func (r *Repo) Put(ctx context.Context, hash, region string, res product.Result, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(record{Result: res, ExpiresAt: r.now().Add(ttl).UTC()})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(hash, region), data, ttl); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (r *Repo) key(hash, region string) string {
	return fmt.Sprintf("%ssearch:%s:%s", r.prefix, hash, region)
}
