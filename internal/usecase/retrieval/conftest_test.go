package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/zokey/internal/domain/product"
)

// mockProvider implements Provider for tests.
type mockProvider struct {
	calls    int
	lastReq  product.SearchRequest
	searchFn func(ctx context.Context, req product.SearchRequest) ([]product.Product, error)
}

func (m *mockProvider) Search(ctx context.Context, req product.SearchRequest) ([]product.Product, error) {
	m.calls++
	m.lastReq = req
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return nil, fmt.Errorf("not configured")
}

// mockFallback implements Fallback for tests.
type mockFallback struct {
	calls      int
	productsFn func(keywords []string, region string, priceMin, priceMax *float64) []product.Product
}

func (m *mockFallback) Products(keywords []string, region string, priceMin, priceMax *float64) []product.Product {
	m.calls++
	if m.productsFn != nil {
		return m.productsFn(keywords, region, priceMin, priceMax)
	}
	return nil
}

func ptr(f float64) *float64 { return &f }

func products(n int) []product.Product {
	out := make([]product.Product, n)
	for i := range n {
		out[i] = product.Product{ASIN: fmt.Sprintf("B%03d", i), Title: "Item", Price: float64(100 + i), Currency: "GBP"}
	}
	return out
}
