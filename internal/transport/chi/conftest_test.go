package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/zokey/internal/auth"
	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/user"
	accountuc "github.com/kailas-cloud/zokey/internal/usecase/account"
	healthuc "github.com/kailas-cloud/zokey/internal/usecase/health"
	searchuc "github.com/kailas-cloud/zokey/internal/usecase/search"
)

// mockSearch implements SearchService.
type mockSearch struct {
	searchFn func(ctx context.Context, req searchuc.Request) (searchuc.Outcome, error)
	calls    int
	last     searchuc.Request
}

func (m *mockSearch) Search(ctx context.Context, req searchuc.Request) (searchuc.Outcome, error) {
	m.calls++
	m.last = req
	return m.searchFn(ctx, req)
}

// mockAccounts implements AccountService.
type mockAccounts struct {
	registerFn  func(deviceID, region, currency string) (accountuc.Registration, error)
	statusFn    func(userID string) (user.User, error)
	resetFn     func(userID string) (user.User, error)
	authorizeFn func(userID string) (user.User, error)
	validateFn  func(userID, receipt string) (user.Subscription, error)
	restoreFn   func(userID, receipt string) (user.Subscription, error)
	completed   []accountuc.Completion
}

func (m *mockAccounts) Register(_ context.Context, deviceID, region, currency string) (accountuc.Registration, error) {
	return m.registerFn(deviceID, region, currency)
}

func (m *mockAccounts) Status(_ context.Context, userID string) (user.User, error) {
	return m.statusFn(userID)
}

func (m *mockAccounts) ResetSearches(_ context.Context, userID string) (user.User, error) {
	return m.resetFn(userID)
}

func (m *mockAccounts) Authorize(_ context.Context, userID string) (user.User, error) {
	return m.authorizeFn(userID)
}

func (m *mockAccounts) Complete(_ context.Context, _ user.User, c accountuc.Completion) string {
	m.completed = append(m.completed, c)
	return "search-1"
}

func (m *mockAccounts) ValidateSubscription(_ context.Context, userID, receipt string) (user.Subscription, error) {
	return m.validateFn(userID, receipt)
}

func (m *mockAccounts) RestoreSubscription(_ context.Context, userID, receipt string) (user.Subscription, error) {
	return m.restoreFn(userID, receipt)
}

// mockHealth implements HealthChecker.
type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func freeUser(id string) user.User {
	return user.User{ID: id, FreeSearchesLimit: 3, SubscriptionStatus: user.StatusNone}
}

type fixture struct {
	server   *Server
	handler  http.Handler
	search   *mockSearch
	accounts *mockAccounts
	tokens   *auth.Manager
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()
	tokens, err := auth.NewManager("test-secret", 0)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	f := &fixture{
		search: &mockSearch{searchFn: func(context.Context, searchuc.Request) (searchuc.Outcome, error) {
			return searchuc.Outcome{}, domain.ErrNoProductsFound
		}},
		accounts: &mockAccounts{
			statusFn:    func(id string) (user.User, error) { return freeUser(id), nil },
			resetFn:     func(id string) (user.User, error) { return freeUser(id), nil },
			authorizeFn: func(id string) (user.User, error) { return freeUser(id), nil },
		},
		tokens: tokens,
	}
	cfg := Config{
		Search:   f.search,
		Accounts: f.accounts,
		Catalog:  catalog.MustSource(),
		Health:   &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		Tokens:   tokens,
	}
	for _, o := range opts {
		o(&cfg)
	}
	f.server = NewServer(cfg)
	f.handler = f.server.Handler()
	return f
}

func (f *fixture) token(t *testing.T, userID, region string) string {
	t.Helper()
	tok, err := f.tokens.Issue(userID, "device-"+userID, region)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}
