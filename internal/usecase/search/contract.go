package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/usecase/ranking"
	"github.com/kailas-cloud/zokey/internal/usecase/retrieval"
)

// Normalizer builds the canonical query for an answer set.
type Normalizer interface {
	Normalize(subcategoryID string, answers []query.Answer, region string) (query.Normalized, error)
}

// CategoryResolver resolves display names for the response envelope.
type CategoryResolver interface {
	Lookup(subcategoryID, region string) (catalog.Category, catalog.Subcategory, error)
}

// Cache stores ranked results by (hash, region).
type Cache interface {
	Get(ctx context.Context, hash, region string) (product.Result, bool, error)
	Put(ctx context.Context, hash, region string, res product.Result, ttl time.Duration) error
}

// Retriever fetches candidate products.
type Retriever interface {
	Fetch(ctx context.Context, q query.Normalized, region string) ([]product.Product, retrieval.Source, error)
}

// Ranker orders candidates against user preferences.
type Ranker interface {
	Rank(ctx context.Context, products []product.Product, prefs ranking.Preferences) (product.Ranking, ranking.Strategy)
}
