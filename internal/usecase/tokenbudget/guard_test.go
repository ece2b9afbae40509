package tokenbudget

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/metrics"
)

func TestGuard_RecordsUsage(t *testing.T) {
	inner := &mockCompleter{content: `{"ok":true}`, prompt: 120, completion: 30}
	tr, _ := newTrackerAt(t, day, Limits{Daily: 1000, Monthly: 5000})
	g := NewGuard(inner, "guard-usage", tr, nil)

	got, err := g.CompleteJSON(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("content = %q", got)
	}
	if tr.DailyUsed() != 150 {
		t.Errorf("daily used = %d, want 150", tr.DailyUsed())
	}
	gauge := metrics.RankingBudgetTokensRemaining.WithLabelValues("guard-usage", "daily")
	if v := testutil.ToFloat64(gauge); v != 850 {
		t.Errorf("remaining gauge = %v, want 850", v)
	}
}

func TestGuard_RejectsWhenExhausted(t *testing.T) {
	inner := &mockCompleter{content: "{}"}
	tr, _ := newTrackerAt(t, day, Limits{Daily: 100, Action: ActionReject})
	tr.Record(context.Background(), 100)
	g := NewGuard(inner, "guard-reject", tr, nil)

	_, err := g.CompleteJSON(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrTokenBudgetExceeded) {
		t.Fatalf("expected ErrTokenBudgetExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times, want 0", inner.calls)
	}
}

func TestGuard_InnerError(t *testing.T) {
	inner := &mockCompleter{err: domain.ErrUpstream}
	tr, _ := newTrackerAt(t, day, Limits{Daily: 100})
	g := NewGuard(inner, "guard-error", tr, nil)

	_, err := g.CompleteJSON(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if tr.DailyUsed() != 0 {
		t.Errorf("no tokens should be recorded, got %d", tr.DailyUsed())
	}
}

func TestGuard_NoBudget(t *testing.T) {
	inner := &mockCompleter{content: "{}", prompt: 10}
	g := NewGuard(inner, "guard-none", nil, nil)

	if _, err := g.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d", inner.calls)
	}
}
