package tokenbudget

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

type mockStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	incErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]int64)}
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return m.incErr
	}
	m.data[key] += val
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func (m *mockStore) value(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

// mockCompleter reports prompt/completion tokens through the usage collector.
type mockCompleter struct {
	content    string
	err        error
	prompt     int
	completion int
	calls      int
}

func (m *mockCompleter) CompleteJSON(ctx context.Context, _, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	domain.UsageFromContext(ctx).Add(m.prompt, m.completion)
	return m.content, nil
}

// fakeClock lets tests move the tracker across day and month boundaries.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTrackerAt(t *testing.T, at time.Time, limits Limits) (*Tracker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: at}
	tr := NewTracker("openai", "zokey:", limits, nil)
	tr.now = clock.Now
	tr.lastDayReset = truncateToDay(at)
	tr.lastMonthReset = truncateToMonth(at)
	return tr, clock
}
