package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/domain/user"
)

// memUsers implements UserStore in memory.
type memUsers struct {
	mu       sync.Mutex
	byID     map[string]user.User
	byDevice map[string]string
	incErr   error
	upErr    error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]user.User{}, byDevice: map[string]string{}}
}

func (m *memUsers) Upsert(_ context.Context, deviceID, region, currency string, freeLimit int) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upErr != nil {
		return user.User{}, m.upErr
	}
	if id, ok := m.byDevice[deviceID]; ok {
		u := m.byID[id]
		u.Region, u.Currency = region, currency
		m.byID[id] = u
		return u, nil
	}
	id := fmt.Sprintf("user-%d", len(m.byID)+1)
	u := user.User{
		ID: id, DeviceID: deviceID, Region: region, Currency: currency,
		FreeSearchesLimit: freeLimit, SubscriptionStatus: user.StatusNone,
	}
	m.byID[id] = u
	m.byDevice[deviceID] = id
	return u, nil
}

func (m *memUsers) Get(_ context.Context, id string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return user.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) IncrementSearches(_ context.Context, id string) (user.User, error) {
	return m.update(id, func(u *user.User) error {
		if m.incErr != nil {
			return m.incErr
		}
		u.FreeSearchesUsed++
		return nil
	})
}

func (m *memUsers) ResetSearches(_ context.Context, id string) (user.User, error) {
	return m.update(id, func(u *user.User) error {
		u.FreeSearchesUsed = 0
		return nil
	})
}

func (m *memUsers) UpdateSubscription(_ context.Context, id string, sub user.Subscription) (user.User, error) {
	return m.update(id, func(u *user.User) error {
		u.SubscriptionStatus = sub.Status
		u.SubscriptionExpiresAt = sub.ExpiresAt
		u.SubscriptionProductID = sub.ProductID
		return nil
	})
}

func (m *memUsers) update(id string, fn func(*user.User) error) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return user.User{}, domain.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return user.User{}, err
	}
	m.byID[id] = u
	return u, nil
}

// mockHistory implements History.
type mockHistory struct {
	entries  []user.HistoryEntry
	events   []user.Event
	recordFn func(e user.HistoryEntry) (string, error)
	trackErr error
}

func (m *mockHistory) RecordSearch(_ context.Context, e user.HistoryEntry, _ query.Normalized) (string, error) {
	m.entries = append(m.entries, e)
	if m.recordFn != nil {
		return m.recordFn(e)
	}
	return fmt.Sprintf("search-%d", len(m.entries)), nil
}

func (m *mockHistory) Track(_ context.Context, e user.Event) error {
	m.events = append(m.events, e)
	return m.trackErr
}

func (m *mockHistory) eventNames() []string {
	names := make([]string, 0, len(m.events))
	for _, e := range m.events {
		names = append(names, e.Name)
	}
	return names
}

// mockReceipts implements ReceiptValidator.
type mockReceipts struct {
	validateFn func(receipt string) (user.Subscription, error)
}

func (m *mockReceipts) Validate(_ context.Context, receipt string) (user.Subscription, error) {
	return m.validateFn(receipt)
}

// mockTokens implements TokenIssuer.
type mockTokens struct {
	err error
}

func (m *mockTokens) Issue(userID, deviceID, region string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token:" + userID + ":" + deviceID + ":" + region, nil
}

type fixture struct {
	svc      *Service
	users    *memUsers
	history  *mockHistory
	receipts *mockReceipts
}

func newFixture() *fixture {
	f := &fixture{
		users:   newMemUsers(),
		history: &mockHistory{},
		receipts: &mockReceipts{validateFn: func(string) (user.Subscription, error) {
			return user.Subscription{Valid: true, Status: user.StatusActive, ProductID: user.ProductYearly}, nil
		}},
	}
	f.svc = New(Config{
		Users:    f.users,
		History:  f.history,
		Receipts: f.receipts,
		Tokens:   &mockTokens{},
	})
	return f
}
