// Package retrieval fetches candidate products for a normalized query.
package retrieval

import (
	"context"
	"math"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/logger"
)

// Source names where a product list came from.
type Source string

// Product sources.
const (
	SourceProvider  Source = "provider"
	SourceSynthetic Source = "synthetic"
)

// Service fetches products from the provider, falling back to the synthetic catalog.
type Service struct {
	provider      Provider
	fallback      Fallback
	fallbackTotal *prometheus.CounterVec
	logger        *zap.Logger
}

// New creates a Service. provider may be nil when credentials are absent;
// every fetch then uses the fallback.
func New(provider Provider, fallback Fallback, fallbackTotal *prometheus.CounterVec, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:      provider,
		fallback:      fallback,
		fallbackTotal: fallbackTotal,
		logger:        logger,
	}
}

// Fetch returns between 1 and product.DefaultResultCap products for q, or
// domain.ErrNoProductsFound. Provider failures are never returned.
func (s *Service) Fetch(ctx context.Context, q query.Normalized, region string) ([]product.Product, Source, error) {
	if s.provider != nil {
		products, err := s.provider.Search(ctx, BuildRequest(q, region))
		if err == nil {
			products = sanitize(products)
			if len(products) == 0 {
				return nil, SourceProvider, domain.ErrNoProductsFound
			}
			return products, SourceProvider, nil
		}
		logger.FromContextOr(ctx, s.logger).Warn("Catalog provider failed, using synthetic catalog",
			zap.String("region", region), zap.Error(err))
		s.incFallback()
	}

	products := s.fallback.Products(q.Keywords, region, q.Filters.PriceMin, q.Filters.PriceMax)
	products = sanitize(products)
	if len(products) == 0 {
		return nil, SourceSynthetic, domain.ErrNoProductsFound
	}
	return products, SourceSynthetic, nil
}

// BuildRequest translates a normalized query into a provider request.
func BuildRequest(q query.Normalized, region string) product.SearchRequest {
	req := product.SearchRequest{
		Keywords:     strings.Join(q.Keywords, " "),
		CategoryHint: SearchIndex(q.CategoryPath),
		PriceMin:     q.Filters.PriceMin,
		PriceMax:     q.Filters.PriceMax,
		SortBy:       q.Filters.SortBy,
		ResultCap:    product.DefaultResultCap,
		Region:       region,
	}
	if len(q.Filters.Brand) > 0 {
		req.Brand = q.Filters.Brand[0]
	}
	return req
}

// sanitize drops records without an id or with an invalid price and caps the list.
func sanitize(in []product.Product) []product.Product {
	out := make([]product.Product, 0, min(len(in), product.DefaultResultCap))
	for _, p := range in {
		if len(out) == product.DefaultResultCap {
			break
		}
		if p.ASIN == "" || p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		if p.Features == nil {
			p.Features = []string{}
		}
		out = append(out, p)
	}
	return out
}

func (s *Service) incFallback() {
	if s.fallbackTotal != nil {
		s.fallbackTotal.WithLabelValues("retrieval").Inc()
	}
}
