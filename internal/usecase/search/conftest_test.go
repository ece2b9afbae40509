package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/usecase/normalize"
	"github.com/kailas-cloud/zokey/internal/usecase/ranking"
	"github.com/kailas-cloud/zokey/internal/usecase/retrieval"
)

// memCache implements Cache in memory with optional failure injection.
type memCache struct {
	mu      sync.Mutex
	entries map[string]product.Result
	gets    int
	puts    int
	getErr  error
	putErr  error
	lastTTL time.Duration
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]product.Result)}
}

func (m *memCache) Get(_ context.Context, hash, region string) (product.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return product.Result{}, false, m.getErr
	}
	res, ok := m.entries[hash+":"+region]
	return res, ok, nil
}

func (m *memCache) Put(_ context.Context, hash, region string, res product.Result, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.lastTTL = ttl
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[hash+":"+region] = res
	return nil
}

// mockRetriever implements Retriever.
type mockRetriever struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, q query.Normalized, region string) ([]product.Product, retrieval.Source, error)
}

func (m *mockRetriever) Fetch(ctx context.Context, q query.Normalized, region string) ([]product.Product, retrieval.Source, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, q, region)
	}
	return nil, "", fmt.Errorf("not configured")
}

func (m *mockRetriever) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// countingRanker wraps the heuristic-only ranking service and counts calls.
type countingRanker struct {
	mu        sync.Mutex
	calls     int
	lastPrefs ranking.Preferences
	svc       *ranking.Service
}

func newCountingRanker() *countingRanker {
	return &countingRanker{svc: ranking.New(nil, nil, nil)}
}

func (r *countingRanker) Rank(ctx context.Context, products []product.Product, prefs ranking.Preferences) (product.Ranking, ranking.Strategy) {
	r.mu.Lock()
	r.calls++
	r.lastPrefs = prefs
	r.mu.Unlock()
	return r.svc.Rank(ctx, products, prefs)
}

func (r *countingRanker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func laptops() []product.Product {
	return []product.Product{
		{ASIN: "L1", Title: "Budget Laptop", Price: 450, Currency: "GBP", Rating: 4.1, ReviewCount: 300, Features: []string{}},
		{ASIN: "L2", Title: "Pro Laptop", Price: 1400, Currency: "GBP", Rating: 4.8, ReviewCount: 7800, IsPrime: true, Features: []string{"M3"}},
		{ASIN: "L3", Title: "Gaming Laptop", Price: 1900, Currency: "GBP", Rating: 4.6, ReviewCount: 2100, IsPrime: true, Features: []string{}},
		{ASIN: "L4", Title: "Office Laptop", Price: 800, Currency: "GBP", Rating: 3.8, ReviewCount: 1500, IsPrime: true, Features: []string{}},
		{ASIN: "L5", Title: "Slim Laptop", Price: 999, Currency: "GBP", Rating: 4.4, ReviewCount: 900, IsPrime: true, Features: []string{}},
		{ASIN: "L6", Title: "Convertible Laptop", Price: 700, Currency: "GBP", Rating: 4.0, ReviewCount: 50, Features: []string{}},
	}
}

func scenarioA() Request {
	return Request{
		SubcategoryID: "laptops",
		Answers: []query.Answer{
			{QuestionID: "usage", Value: query.Scalar("work")},
			{QuestionID: "budget", Value: query.RangeValue(500, 1500)},
			{QuestionID: "priorities", Value: query.List("performance", "battery")},
		},
		Region: "UK",
	}
}

type fixture struct {
	svc       *Service
	cache     *memCache
	retriever *mockRetriever
	ranker    *countingRanker
}

func newFixture(retriever Retriever) *fixture {
	src := catalog.MustSource()
	f := &fixture{
		cache:  newMemCache(),
		ranker: newCountingRanker(),
	}
	if r, ok := retriever.(*mockRetriever); ok {
		f.retriever = r
	}
	f.svc = New(Config{
		Normalizer: normalize.New(src),
		Categories: src,
		Cache:      f.cache,
		Retriever:  retriever,
		Ranker:     f.ranker,
	})
	return f
}

func staticRetriever(products []product.Product) *mockRetriever {
	return &mockRetriever{fetchFn: func(_ context.Context, _ query.Normalized, _ string) ([]product.Product, retrieval.Source, error) {
		return products, retrieval.SourceProvider, nil
	}}
}
