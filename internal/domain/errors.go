package domain

import "errors"

var (
	// ErrUnknownSubcategory signals a subcategory id that is not in the catalog.
	ErrUnknownSubcategory = errors.New("unknown subcategory")
	// ErrNoProductsFound signals that retrieval produced zero results after filtering.
	ErrNoProductsFound = errors.New("no products found")
	// ErrUpstream signals a transport failure (network, timeout, non-2xx) talking to a provider.
	ErrUpstream = errors.New("upstream provider error")
	// ErrMalformedResponse signals provider content that failed shape validation.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrCacheUnavailable signals a cache store read or write failure.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrProviderNotConfigured signals missing provider credentials.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrTokenBudgetExceeded signals an exhausted daily or monthly ranking model token budget.
	ErrTokenBudgetExceeded = errors.New("model token budget exceeded")

	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrSearchLimitReached signals an exhausted free quota without an active subscription.
	ErrSearchLimitReached = errors.New("free search limit reached")
	// ErrInvalidReceipt signals a receipt rejected by the entitlement provider.
	ErrInvalidReceipt = errors.New("invalid receipt")
	// ErrUnauthorized signals a missing or invalid session token.
	ErrUnauthorized = errors.New("unauthorized")
)

// ReceiptError carries the provider's reason for rejecting a receipt.
type ReceiptError struct {
	Reason string
}

func (e *ReceiptError) Error() string { return ErrInvalidReceipt.Error() + ": " + e.Reason }

func (e *ReceiptError) Unwrap() error { return ErrInvalidReceipt }
