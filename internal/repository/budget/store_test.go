package budget

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const (
	dailyKey   = "zokey:budget:openai:daily:2026-03-14"
	monthlyKey = "zokey:budget:openai:monthly:2026-03"
)

func TestIncrBy_SetsWindowTTL(t *testing.T) {
	ms := newMockKVStore()
	s := New(ms, 0, 0)
	ctx := context.Background()

	if err := s.IncrBy(ctx, dailyKey, 40); err != nil {
		t.Fatalf("IncrBy daily: %v", err)
	}
	if err := s.IncrBy(ctx, monthlyKey, 40); err != nil {
		t.Fatalf("IncrBy monthly: %v", err)
	}

	if len(ms.expires) != 2 {
		t.Fatalf("expected 2 EXPIRE calls, got %d", len(ms.expires))
	}
	if c := ms.expires[0]; c.ttl != DefaultDailyTTL || !c.nx {
		t.Errorf("daily expire = %+v", c)
	}
	if c := ms.expires[1]; c.ttl != DefaultMonthlyTTL || !c.nx {
		t.Errorf("monthly expire = %+v", c)
	}
}

func TestGet(t *testing.T) {
	ms := newMockKVStore()
	s := New(ms, time.Hour, 2*time.Hour)
	ctx := context.Background()

	if v, err := s.Get(ctx, dailyKey); err != nil || v != 0 {
		t.Fatalf("missing key = %d, %v; want 0, nil", v, err)
	}

	_ = s.IncrBy(ctx, dailyKey, 25)
	_ = s.IncrBy(ctx, dailyKey, 5)
	if v, err := s.Get(ctx, dailyKey); err != nil || v != 30 {
		t.Fatalf("Get = %d, %v; want 30", v, err)
	}
}

func TestGet_Errors(t *testing.T) {
	ms := newMockKVStore()
	s := New(ms, 0, 0)

	ms.data[dailyKey] = []byte("not-a-number")
	if _, err := s.Get(context.Background(), dailyKey); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("expected parse error, got %v", err)
	}

	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, errors.New("conn reset") }
	if _, err := s.Get(context.Background(), dailyKey); err == nil {
		t.Error("expected store error")
	}
}

func TestIncrBy_Errors(t *testing.T) {
	ms := newMockKVStore()
	s := New(ms, 0, 0)

	ms.expireFn = func(context.Context, string, time.Duration, bool) error { return errors.New("readonly") }
	if err := s.IncrBy(context.Background(), dailyKey, 1); err == nil || !strings.Contains(err.Error(), "EXPIRE") {
		t.Errorf("expected EXPIRE error, got %v", err)
	}

	ms.incrFn = func(context.Context, string, int64) (int64, error) { return 0, errors.New("oom") }
	if err := s.IncrBy(context.Background(), dailyKey, 1); err == nil || !strings.Contains(err.Error(), "INCRBY") {
		t.Errorf("expected INCRBY error, got %v", err)
	}
}
