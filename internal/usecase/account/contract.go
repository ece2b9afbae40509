package account

import (
	"context"

	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/domain/user"
)

// UserStore persists device accounts and their quota counters.
type UserStore interface {
	Upsert(ctx context.Context, deviceID, region, currency string, freeLimit int) (user.User, error)
	Get(ctx context.Context, id string) (user.User, error)
	IncrementSearches(ctx context.Context, id string) (user.User, error)
	ResetSearches(ctx context.Context, id string) (user.User, error)
	UpdateSubscription(ctx context.Context, id string, sub user.Subscription) (user.User, error)
}

// History records searches and analytics events.
type History interface {
	RecordSearch(ctx context.Context, e user.HistoryEntry, q query.Normalized) (string, error)
	Track(ctx context.Context, e user.Event) error
}

// ReceiptValidator checks an App Store receipt.
type ReceiptValidator interface {
	Validate(ctx context.Context, receiptData string) (user.Subscription, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, deviceID, region string) (string, error)
}
