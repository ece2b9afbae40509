// Package user defines device-bound accounts and subscription state.
package user

import "time"

// SubscriptionStatus is the App Store subscription state.
type SubscriptionStatus string

// Subscription states.
const (
	StatusNone        SubscriptionStatus = "none"
	StatusActive      SubscriptionStatus = "active"
	StatusExpired     SubscriptionStatus = "expired"
	StatusGracePeriod SubscriptionStatus = "grace_period"
)

// Known subscription product identifiers.
const (
	ProductWeekly = "com.shopai.subscription.weekly"
	ProductYearly = "com.shopai.subscription.yearly"
)

// IsSubscriptionProduct reports whether id is one of ours.
func IsSubscriptionProduct(id string) bool {
	return id == ProductWeekly || id == ProductYearly
}

// User is a device-registered account.
type User struct {
	ID                    string             `json:"id"`
	DeviceID              string             `json:"deviceId"`
	Region                string             `json:"region"`
	Currency              string             `json:"currency"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
	FreeSearchesUsed      int                `json:"freeSearchesUsed"`
	FreeSearchesLimit     int                `json:"freeSearchesLimit"`
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time         `json:"subscriptionExpiresAt,omitempty"`
	SubscriptionProductID string             `json:"subscriptionProductId,omitempty"`
	OriginalTransactionID string             `json:"-"`
}

// IsSubscribed reports whether the user has an active subscription.
func (u User) IsSubscribed() bool { return u.SubscriptionStatus == StatusActive }

// RemainingSearches returns free searches left, never negative.
func (u User) RemainingSearches() int {
	if n := u.FreeSearchesLimit - u.FreeSearchesUsed; n > 0 {
		return n
	}
	return 0
}

// CanSearch reports whether the user may run another search.
func (u User) CanSearch() bool {
	return u.IsSubscribed() || u.FreeSearchesUsed < u.FreeSearchesLimit
}

// Subscription is the outcome of a receipt validation.
type Subscription struct {
	Valid     bool               `json:"valid"`
	Status    SubscriptionStatus `json:"subscriptionStatus"`
	ExpiresAt *time.Time         `json:"expiresAt"`
	ProductID string             `json:"productId,omitempty"`
	// OriginalTransactionID links renewals of one purchase.
	OriginalTransactionID string `json:"-"`
	Error                 string `json:"error,omitempty"`
}

// HistoryEntry is one recorded search.
type HistoryEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	CategoryID    string    `json:"categoryId"`
	SubcategoryID string    `json:"subcategoryId"`
	QueryHash     string    `json:"queryHash"`
	Region        string    `json:"region"`
	ResultsCount  int       `json:"resultsCount"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Event is an analytics event.
type Event struct {
	UserID    string         `json:"userId,omitempty"`
	Name      string         `json:"name"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
