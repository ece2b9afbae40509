package appstore

import (
	"context"
	"regexp"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain/user"
)

const minMockReceiptLen = 10

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// Mock accepts any base64-looking receipt as a one-year yearly subscription.
type Mock struct {
	now func() time.Time
}

// NewMock creates a Mock validator.
func NewMock() *Mock {
	return &Mock{now: time.Now}
}

// Validate implements the receipt validator contract without network access.
func (m *Mock) Validate(_ context.Context, receiptData string) (user.Subscription, error) {
	if len(receiptData) < minMockReceiptLen || !base64Pattern.MatchString(receiptData) {
		return invalid("Invalid receipt format"), nil
	}
	expiresAt := m.now().UTC().AddDate(1, 0, 0)
	return user.Subscription{
		Valid:     true,
		Status:    user.StatusActive,
		ExpiresAt: &expiresAt,
		ProductID: user.ProductYearly,
	}, nil
}
