package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/zokey/internal/db"
	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/user"
)

const userColumns = `id, device_id, region, currency, free_searches_used, free_searches_limit,
	subscription_status, subscription_product_id, subscription_expires_at,
	subscription_original_transaction_id, created_at, updated_at`

// UserRepo stores users in Postgres.
type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(conn *sql.DB) *UserRepo {
	return &UserRepo{db: conn, now: time.Now}
}

// Upsert creates the user for deviceID or refreshes its region and currency.
func (r *UserRepo) Upsert(ctx context.Context, deviceID, region, currency string, freeLimit int) (user.User, error) {
	now := r.now().UTC()
	row := r.db.QueryRowContext(ctx, `
INSERT INTO users (id, device_id, region, currency, free_searches_limit, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (device_id) DO UPDATE SET
	region = EXCLUDED.region,
	currency = EXCLUDED.currency,
	updated_at = EXCLUDED.updated_at
RETURNING `+userColumns,
		uuid.NewString(), deviceID, region, currency, freeLimit, now,
	)
	u, err := scanUser(row)
	if err != nil {
		return user.User{}, &db.Error{Op: db.OpInsert, Err: err}
	}
	return u, nil
}

// Get returns the user by id or domain.ErrUserNotFound.
func (r *UserRepo) Get(ctx context.Context, id string) (user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.one(row, db.OpSelect)
}

// IncrementSearches adds one to the free search counter.
func (r *UserRepo) IncrementSearches(ctx context.Context, id string) (user.User, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE users SET free_searches_used = free_searches_used + 1, updated_at = $2
WHERE id = $1
RETURNING `+userColumns, id, r.now().UTC())
	return r.one(row, db.OpUpdate)
}

// ResetSearches zeroes the free search counter.
func (r *UserRepo) ResetSearches(ctx context.Context, id string) (user.User, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE users SET free_searches_used = 0, updated_at = $2
WHERE id = $1
RETURNING `+userColumns, id, r.now().UTC())
	return r.one(row, db.OpUpdate)
}

// UpdateSubscription stores the validated subscription state.
func (r *UserRepo) UpdateSubscription(ctx context.Context, id string, sub user.Subscription) (user.User, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE users SET
	subscription_status = $2,
	subscription_product_id = $3,
	subscription_expires_at = $4,
	subscription_original_transaction_id = $5,
	updated_at = $6
WHERE id = $1
RETURNING `+userColumns,
		id, string(sub.Status), nullString(sub.ProductID), sub.ExpiresAt,
		nullString(sub.OriginalTransactionID), r.now().UTC(),
	)
	return r.one(row, db.OpUpdate)
}

// Ping checks connectivity.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepo) one(row *sql.Row, op string) (user.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, domain.ErrUserNotFound
		}
		return user.User{}, &db.Error{Op: op, Err: err}
	}
	return u, nil
}

func scanUser(row *sql.Row) (user.User, error) {
	var (
		u          user.User
		status     string
		productID  sql.NullString
		expiresAt  sql.NullTime
		originalTx sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.DeviceID, &u.Region, &u.Currency, &u.FreeSearchesUsed, &u.FreeSearchesLimit,
		&status, &productID, &expiresAt, &originalTx, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.SubscriptionStatus = user.SubscriptionStatus(status)
	u.SubscriptionProductID = productID.String
	u.OriginalTransactionID = originalTx.String
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		u.SubscriptionExpiresAt = &t
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
