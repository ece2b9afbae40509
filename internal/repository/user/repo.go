// Package user stores accounts in the key-value store when no SQL database is configured.
package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/zokey/internal/db"
	"github.com/kailas-cloud/zokey/internal/domain"
	domuser "github.com/kailas-cloud/zokey/internal/domain/user"
)

// store is the consumer interface for user records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// Repo implements usecase/account.UserStore over hashes plus a device index.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
	newID  func() string
}

// New creates a Repo. keyPrefix namespaces keys, e.g. "zokey:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix, now: time.Now, newID: uuid.NewString}
}

// Upsert creates the user for deviceID or refreshes its region and currency.
func (r *Repo) Upsert(ctx context.Context, deviceID, region, currency string, freeLimit int) (domuser.User, error) {
	now := r.now().UTC()

	id := r.newID()
	created, err := r.store.SetNX(ctx, r.deviceKey(deviceID), []byte(id))
	if err != nil {
		return domuser.User{}, fmt.Errorf("claim device %s: %w", deviceID, err)
	}
	if !created {
		raw, err := r.store.Get(ctx, r.deviceKey(deviceID))
		if err != nil {
			return domuser.User{}, fmt.Errorf("resolve device %s: %w", deviceID, err)
		}
		id = string(raw)

		u, err := r.Get(ctx, id)
		switch {
		case err == nil:
			fields := map[string]string{
				"region":     region,
				"currency":   currency,
				"updated_at": formatTime(now),
			}
			if err := r.store.HSet(ctx, r.userKey(id), fields); err != nil {
				return domuser.User{}, fmt.Errorf("hset user %s: %w", id, err)
			}
			u.Region, u.Currency, u.UpdatedAt = region, currency, now
			return u, nil
		case !errors.Is(err, domain.ErrUserNotFound):
			return domuser.User{}, err
		}
	}

	u := domuser.User{
		ID:                 id,
		DeviceID:           deviceID,
		Region:             region,
		Currency:           currency,
		FreeSearchesLimit:  freeLimit,
		SubscriptionStatus: domuser.StatusNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := r.store.HSet(ctx, r.userKey(id), userToHash(u)); err != nil {
		return domuser.User{}, fmt.Errorf("hset user %s: %w", id, err)
	}
	return u, nil
}

// Get returns the user by id or domain.ErrUserNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domuser.User, error) {
	m, err := r.store.HGetAll(ctx, r.userKey(id))
	if err != nil {
		return domuser.User{}, fmt.Errorf("hgetall user %s: %w", id, err)
	}
	if len(m) == 0 {
		return domuser.User{}, domain.ErrUserNotFound
	}
	return userFromHash(m)
}

// IncrementSearches adds one to the free search counter.
func (r *Repo) IncrementSearches(ctx context.Context, id string) (domuser.User, error) {
	if err := r.mustExist(ctx, id); err != nil {
		return domuser.User{}, err
	}
	if _, err := r.store.HIncrBy(ctx, r.userKey(id), "free_searches_used", 1); err != nil {
		return domuser.User{}, fmt.Errorf("increment searches %s: %w", id, err)
	}
	return r.touch(ctx, id, nil)
}

// ResetSearches zeroes the free search counter.
func (r *Repo) ResetSearches(ctx context.Context, id string) (domuser.User, error) {
	if err := r.mustExist(ctx, id); err != nil {
		return domuser.User{}, err
	}
	return r.touch(ctx, id, map[string]string{"free_searches_used": "0"})
}

// UpdateSubscription stores the validated subscription state.
func (r *Repo) UpdateSubscription(ctx context.Context, id string, sub domuser.Subscription) (domuser.User, error) {
	if err := r.mustExist(ctx, id); err != nil {
		return domuser.User{}, err
	}
	fields := map[string]string{
		"subscription_status":     string(sub.Status),
		"subscription_product_id": sub.ProductID,
		"subscription_expires_at": "",
		"original_transaction_id": sub.OriginalTransactionID,
	}
	if sub.ExpiresAt != nil {
		fields["subscription_expires_at"] = formatTime(*sub.ExpiresAt)
	}
	return r.touch(ctx, id, fields)
}

func (r *Repo) touch(ctx context.Context, id string, fields map[string]string) (domuser.User, error) {
	if fields == nil {
		fields = map[string]string{}
	}
	fields["updated_at"] = formatTime(r.now().UTC())
	if err := r.store.HSet(ctx, r.userKey(id), fields); err != nil {
		return domuser.User{}, fmt.Errorf("hset user %s: %w", id, err)
	}
	return r.Get(ctx, id)
}

func (r *Repo) mustExist(ctx context.Context, id string) error {
	ok, err := r.store.Exists(ctx, r.userKey(id))
	if err != nil {
		return fmt.Errorf("check user %s: %w", id, err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *Repo) userKey(id string) string { return r.prefix + "user:" + id }

func (r *Repo) deviceKey(deviceID string) string { return r.prefix + "device:" + deviceID }

func userToHash(u domuser.User) map[string]string {
	m := map[string]string{
		"id":                      u.ID,
		"device_id":               u.DeviceID,
		"region":                  u.Region,
		"currency":                u.Currency,
		"free_searches_used":      strconv.Itoa(u.FreeSearchesUsed),
		"free_searches_limit":     strconv.Itoa(u.FreeSearchesLimit),
		"subscription_status":     string(u.SubscriptionStatus),
		"subscription_product_id": u.SubscriptionProductID,
		"subscription_expires_at": "",
		"original_transaction_id": u.OriginalTransactionID,
		"created_at":              formatTime(u.CreatedAt),
		"updated_at":              formatTime(u.UpdatedAt),
	}
	if u.SubscriptionExpiresAt != nil {
		m["subscription_expires_at"] = formatTime(*u.SubscriptionExpiresAt)
	}
	return m
}

func userFromHash(m map[string]string) (domuser.User, error) {
	used, err := strconv.Atoi(m["free_searches_used"])
	if err != nil {
		return domuser.User{}, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("invalid free_searches_used: %w", err)}
	}
	limit, err := strconv.Atoi(m["free_searches_limit"])
	if err != nil {
		return domuser.User{}, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("invalid free_searches_limit: %w", err)}
	}

	u := domuser.User{
		ID:                    m["id"],
		DeviceID:              m["device_id"],
		Region:                m["region"],
		Currency:              m["currency"],
		FreeSearchesUsed:      used,
		FreeSearchesLimit:     limit,
		SubscriptionStatus:    domuser.SubscriptionStatus(m["subscription_status"]),
		SubscriptionProductID: m["subscription_product_id"],
		OriginalTransactionID: m["original_transaction_id"],
		CreatedAt:             parseTime(m["created_at"]),
		UpdatedAt:             parseTime(m["updated_at"]),
	}
	if u.SubscriptionStatus == "" {
		u.SubscriptionStatus = domuser.StatusNone
	}
	if v := m["subscription_expires_at"]; v != "" {
		t := parseTime(v)
		u.SubscriptionExpiresAt = &t
	}
	return u, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
