package retrieval

import (
	"context"

	"github.com/kailas-cloud/zokey/internal/domain/product"
)

// Provider searches a live product catalog. A nil error with an empty slice
// means the provider answered with zero matches.
type Provider interface {
	Search(ctx context.Context, req product.SearchRequest) ([]product.Product, error)
}

// Fallback serves deterministic products when the provider cannot.
type Fallback interface {
	Products(keywords []string, region string, priceMin, priceMax *float64) []product.Product
}
