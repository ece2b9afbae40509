// Package account manages device registration, search quota and subscriptions.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/domain/user"
	"github.com/kailas-cloud/zokey/internal/logger"
)

// DefaultFreeSearchLimit is the number of searches granted to a new device.
const DefaultFreeSearchLimit = 3

// Analytics event names.
const (
	EventUserRegistered        = "user_registered"
	EventSearchCompleted       = "search_completed"
	EventSubscriptionValidated = "subscription_validated"
	EventSubscriptionRestored  = "subscription_restored"
)

// ErrReceiptCheckFailed signals that the entitlement provider could not be reached.
var ErrReceiptCheckFailed = errors.New("failed to validate receipt")

// Config wires a Service. History can be nil.
type Config struct {
	Users           UserStore
	History         History
	Receipts        ReceiptValidator
	Tokens          TokenIssuer
	FreeSearchLimit int
	Logger          *zap.Logger
}

// Registration is the result of registering a device.
type Registration struct {
	Token string
	User  user.User
}

// Completion describes a finished search for bookkeeping.
type Completion struct {
	CategoryID    string
	SubcategoryID string
	QueryHash     string
	Region        string
	Query         query.Normalized
	ResultsCount  int
}

// Service implements account operations.
type Service struct {
	users     UserStore
	history   History
	receipts  ReceiptValidator
	tokens    TokenIssuer
	freeLimit int
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Service.
func New(cfg Config) *Service {
	limit := cfg.FreeSearchLimit
	if limit <= 0 {
		limit = DefaultFreeSearchLimit
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		users:     cfg.Users,
		history:   cfg.History,
		receipts:  cfg.Receipts,
		tokens:    cfg.Tokens,
		freeLimit: limit,
		logger:    l,
		now:       time.Now,
	}
}

// Register creates or refreshes the account bound to deviceID and issues a session token.
func (s *Service) Register(ctx context.Context, deviceID, region, currency string) (Registration, error) {
	if deviceID == "" {
		return Registration{}, errors.New("device id is required")
	}
	region = domain.NormalizeRegion(region)
	if currency == "" {
		currency = domain.CurrencyForRegion(region)
	}
	currency = domain.NormalizeCurrency(currency)

	u, err := s.users.Upsert(ctx, deviceID, region, currency, s.freeLimit)
	if err != nil {
		return Registration{}, fmt.Errorf("upsert user: %w", err)
	}
	token, err := s.tokens.Issue(u.ID, u.DeviceID, u.Region)
	if err != nil {
		return Registration{}, fmt.Errorf("issue token: %w", err)
	}

	s.track(ctx, u.ID, EventUserRegistered, map[string]any{"region": region})
	return Registration{Token: token, User: u}, nil
}

// Status returns the current account state.
func (s *Service) Status(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ResetSearches zeroes the free search counter.
func (s *Service) ResetSearches(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.ResetSearches(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("reset searches: %w", err)
	}
	return u, nil
}

// Authorize loads the user and fails with domain.ErrSearchLimitReached when no search is left.
func (s *Service) Authorize(ctx context.Context, userID string) (user.User, error) {
	u, err := s.Status(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if !u.CanSearch() {
		return u, domain.ErrSearchLimitReached
	}
	return u, nil
}

// Complete books a successful search: history row, quota increment for
// non-subscribers, and an analytics event. Failures are logged only.
// Returns the search id.
func (s *Service) Complete(ctx context.Context, u user.User, c Completion) string {
	log := logger.FromContextOr(ctx, s.logger)

	searchID := ""
	if s.history != nil {
		id, err := s.history.RecordSearch(ctx, user.HistoryEntry{
			UserID:        u.ID,
			CategoryID:    c.CategoryID,
			SubcategoryID: c.SubcategoryID,
			QueryHash:     c.QueryHash,
			Region:        c.Region,
			ResultsCount:  c.ResultsCount,
			Completed:     true,
			CreatedAt:     s.now().UTC(),
		}, c.Query)
		if err != nil {
			log.Warn("Failed to record search history", zap.String("user_id", u.ID), zap.Error(err))
		}
		searchID = id
	}
	if searchID == "" {
		searchID = uuid.NewString()
	}

	if !u.IsSubscribed() {
		if _, err := s.users.IncrementSearches(ctx, u.ID); err != nil {
			log.Error("Failed to increment search count", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	s.track(ctx, u.ID, EventSearchCompleted, map[string]any{
		"subcategoryId": c.SubcategoryID,
		"queryHash":     c.QueryHash,
		"productCount":  c.ResultsCount,
	})
	return searchID
}

// ValidateSubscription checks receiptData and stores the resulting entitlement.
func (s *Service) ValidateSubscription(ctx context.Context, userID, receiptData string) (user.Subscription, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return user.Subscription{}, fmt.Errorf("get user: %w", err)
	}
	sub, err := s.applyReceipt(ctx, userID, receiptData)
	if err != nil {
		return user.Subscription{}, err
	}
	s.track(ctx, userID, EventSubscriptionValidated, map[string]any{
		"status":    string(sub.Status),
		"productId": sub.ProductID,
	})
	return sub, nil
}

// RestoreSubscription re-applies a previous purchase from receiptData.
func (s *Service) RestoreSubscription(ctx context.Context, userID, receiptData string) (user.Subscription, error) {
	sub, err := s.applyReceipt(ctx, userID, receiptData)
	if err != nil {
		return user.Subscription{}, err
	}
	s.track(ctx, userID, EventSubscriptionRestored, map[string]any{"status": string(sub.Status)})
	return sub, nil
}

func (s *Service) applyReceipt(ctx context.Context, userID, receiptData string) (user.Subscription, error) {
	sub, err := s.receipts.Validate(ctx, receiptData)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Receipt validation failed",
			zap.String("user_id", userID), zap.Error(err))
		return user.Subscription{}, fmt.Errorf("%w: %w", ErrReceiptCheckFailed, err)
	}
	if !sub.Valid {
		reason := sub.Error
		if reason == "" {
			reason = "Receipt validation failed"
		}
		return user.Subscription{}, &domain.ReceiptError{Reason: reason}
	}
	if _, err := s.users.UpdateSubscription(ctx, userID, sub); err != nil {
		return user.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	return sub, nil
}

func (s *Service) track(ctx context.Context, userID, name string, data map[string]any) {
	if s.history == nil {
		return
	}
	err := s.history.Track(ctx, user.Event{UserID: userID, Name: name, Data: data, CreatedAt: s.now().UTC()})
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Failed to track event",
			zap.String("event", name), zap.String("user_id", userID), zap.Error(err))
	}
}
