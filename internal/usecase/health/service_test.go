package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockRankingChecker struct {
	err error
}

func (m *mockRankingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name    string
		cache   error
		db      error
		ranking error
		want    Status
		failed  string
	}{
		{name: "all healthy", want: Healthy},
		{name: "cache down", cache: down, want: Degraded, failed: ComponentCache},
		{name: "database down", db: down, want: Degraded, failed: ComponentDatabase},
		{name: "ranking down", ranking: errors.New("timeout"), want: Degraded, failed: ComponentRanking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tt.cache}, &mockPinger{err: tt.db}, &mockRankingChecker{err: tt.ranking})
			r := svc.Check(context.Background())

			if r.Status != tt.want {
				t.Errorf("expected %q, got %q", tt.want, r.Status)
			}
			for _, c := range []string{ComponentCache, ComponentDatabase, ComponentRanking} {
				want := CheckOK
				if c == tt.failed {
					want = CheckError
				}
				if r.Checks[c] != want {
					t.Errorf("expected %s %q, got %q", c, want, r.Checks[c])
				}
			}
			if r.Timestamp.IsZero() {
				t.Error("expected timestamp")
			}
		})
	}
}

func TestCheck_OptionalComponents(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only cache check, got %v", r.Checks)
	}
}
