package searchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/zokey/internal/db"
	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
)

func sampleResult() product.Result {
	p := product.Product{ASIN: "B001", Title: "Laptop", Price: 999, Currency: "GBP"}
	return product.Result{
		Products: []product.Product{p},
		Ranking: product.Ranking{
			Products: []product.RankedProduct{{Product: p, Rank: 1, MatchScore: 90}},
			Summary:  "Laptop wins",
		},
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	ms := newMockKVStore()
	r := New(ms, "zokey:")
	ctx := context.Background()

	if err := r.Put(ctx, "abc", "UK", sampleResult(), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ms.ttls["zokey:search:abc:UK"] != time.Hour {
		t.Errorf("expected key with 1h ttl, got %v", ms.ttls)
	}

	got, ok, err := r.Get(ctx, "abc", "UK")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got.Ranking.Summary != "Laptop wins" || got.Products[0].ASIN != "B001" {
		t.Errorf("unexpected result: %+v", got)
	}

	if _, ok, _ := r.Get(ctx, "abc", "US"); ok {
		t.Error("region must be part of the key")
	}
}

func TestGet_Miss(t *testing.T) {
	r := New(newMockKVStore(), "zokey:")
	_, ok, err := r.Get(context.Background(), "nope", "UK")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestGet_LazyExpiry(t *testing.T) {
	ms := newMockKVStore()
	r := New(ms, "zokey:")
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return start }

	if err := r.Put(context.Background(), "abc", "UK", sampleResult(), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	r.now = func() time.Time { return start.Add(59 * time.Minute) }
	if _, ok, _ := r.Get(context.Background(), "abc", "UK"); !ok {
		t.Fatal("entry should be live before expiry")
	}

	// The store still holds the bytes, but the entry is past expires_at.
	r.now = func() time.Time { return start.Add(time.Hour) }
	if _, ok, err := r.Get(context.Background(), "abc", "UK"); ok || err != nil {
		t.Fatalf("expired entry must read as absent, got ok=%v err=%v", ok, err)
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := newMockKVStore()
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("conn reset")}
	}
	r := New(ms, "zokey:")

	_, ok, err := r.Get(context.Background(), "abc", "UK")
	if ok || !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got ok=%v err=%v", ok, err)
	}
}

func TestGet_CorruptPayload(t *testing.T) {
	ms := newMockKVStore()
	ms.data["zokey:search:abc:UK"] = []byte("{not json")
	r := New(ms, "zokey:")

	_, _, err := r.Get(context.Background(), "abc", "UK")
	if !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
}

func TestPut_StoreError(t *testing.T) {
	ms := newMockKVStore()
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		return errors.New("read only replica")
	}
	r := New(ms, "zokey:")

	err := r.Put(context.Background(), "abc", "UK", sampleResult(), 0)
	if !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
}
