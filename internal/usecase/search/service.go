// Package search runs the recommendation pipeline behind a content-addressed cache.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/logger"
	"github.com/kailas-cloud/zokey/internal/usecase/normalize"
	"github.com/kailas-cloud/zokey/internal/usecase/ranking"
)

// DefaultTTL is the cache lifetime of a computed result.
const DefaultTTL = time.Hour

// Request is one questionnaire submission.
type Request struct {
	SubcategoryID string
	Answers       []query.Answer
	Region        string
}

// Outcome is the pipeline result plus the derived request context the
// response envelope needs.
type Outcome struct {
	Query           query.Normalized
	Hash            string
	Region          string
	Currency        string
	CategoryID      string
	CategoryName    string
	SubcategoryID   string
	SubcategoryName string
	Budget          query.Budget
	Priorities      []string
	Result          product.Result
	Cached          bool
}

// Service is the cache gateway and pipeline orchestrator.
type Service struct {
	normalizer Normalizer
	categories CategoryResolver
	cache      Cache
	retriever  Retriever
	ranker     Ranker
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	group singleflight.Group
}

// Config wires the Service dependencies. CacheTotal is a counter vec with label "result".
type Config struct {
	Normalizer Normalizer
	Categories CategoryResolver
	Cache      Cache
	Retriever  Retriever
	Ranker     Ranker
	TTL        time.Duration
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// New creates a search Service.
func New(cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		normalizer: cfg.Normalizer,
		categories: cfg.Categories,
		cache:      cfg.Cache,
		retriever:  cfg.Retriever,
		ranker:     cfg.Ranker,
		ttl:        ttl,
		cacheTotal: cfg.CacheTotal,
		logger:     l,
	}
}

// Search normalizes the request and serves the ranked result from cache or
// computes it. Only domain.ErrUnknownSubcategory and
// domain.ErrNoProductsFound are expected errors.
func (s *Service) Search(ctx context.Context, req Request) (Outcome, error) {
	region := domain.NormalizeRegion(req.Region)

	q, err := s.normalizer.Normalize(req.SubcategoryID, req.Answers, region)
	if err != nil {
		return Outcome{}, err
	}
	cat, sub, err := s.categories.Lookup(req.SubcategoryID, region)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve category: %w", err)
	}

	out := Outcome{
		Query:           q,
		Hash:            normalize.Hash(q, region),
		Region:          region,
		Currency:        domain.CurrencyForRegion(region),
		CategoryID:      cat.ID,
		CategoryName:    cat.Name,
		SubcategoryID:   sub.ID,
		SubcategoryName: sub.Name,
		Budget:          normalize.ExtractBudget(req.Answers),
		Priorities:      normalize.ExtractPriorities(req.Answers),
	}

	prefs := ranking.Preferences{
		SubcategoryName: sub.Name,
		Answers:         req.Answers,
		Priorities:      out.Priorities,
		Budget:          out.Budget,
		Currency:        out.Currency,
	}

	res, cached, err := s.getOrCompute(ctx, out.Hash, region, func(ctx context.Context) (product.Result, error) {
		return s.compute(ctx, q, region, prefs)
	})
	if err != nil {
		return Outcome{}, err
	}
	out.Result = res
	out.Cached = cached
	return out, nil
}

type flightResult struct {
	result product.Result
	cached bool
}

// getOrCompute returns the cached entry for (hash, region) or runs compute
// once per key across concurrent callers and stores the result. Cache
// failures degrade to a miss; compute failures are never cached.
func (s *Service) getOrCompute(
	ctx context.Context, hash, region string,
	compute func(context.Context) (product.Result, error),
) (product.Result, bool, error) {
	key := hash + ":" + region
	log := logger.FromContextOr(ctx, s.logger)

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Shared by every waiter on key, so not bound to one caller's cancellation.
		fctx := context.WithoutCancel(ctx)

		res, ok, err := s.cache.Get(fctx, hash, region)
		switch {
		case err != nil:
			s.incCache("error")
			log.Warn("Search cache read failed", zap.String("hash", hash), zap.Error(err))
		case ok && len(res.Ranking.Products) > 0:
			s.incCache("hit")
			return flightResult{result: res, cached: true}, nil
		default:
			s.incCache("miss")
		}

		res, err = compute(fctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(fctx, hash, region, res, s.ttl); err != nil {
			log.Warn("Search cache write failed", zap.String("hash", hash), zap.Error(err))
		}
		return flightResult{result: res}, nil
	})
	if err != nil {
		return product.Result{}, false, err
	}
	fr := v.(flightResult)
	return fr.result, fr.cached, nil
}

func (s *Service) compute(ctx context.Context, q query.Normalized, region string, prefs ranking.Preferences) (product.Result, error) {
	products, source, err := s.retriever.Fetch(ctx, q, region)
	if err != nil {
		if errors.Is(err, domain.ErrNoProductsFound) {
			return product.Result{}, err
		}
		return product.Result{}, fmt.Errorf("fetch products: %w", err)
	}

	ranked, strategy := s.ranker.Rank(ctx, products, prefs)

	logger.FromContextOr(ctx, s.logger).Debug("Search computed",
		zap.Int("candidates", len(products)),
		zap.Int("ranked", len(ranked.Products)),
		zap.String("source", string(source)),
		zap.String("strategy", string(strategy)),
	)
	return product.Result{Products: products, Ranking: ranked}, nil
}

func (s *Service) incCache(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(result).Inc()
	}
}
