package ranking

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/logger"
)

// Strategy names the ranking path that produced a result.
type Strategy string

// Ranking strategies.
const (
	StrategyModel     Strategy = "model"
	StrategyHeuristic Strategy = "heuristic"
)

// Service ranks candidates with the model when configured and falls back to
// the heuristic on any model failure.
type Service struct {
	model         Completer
	fallbackTotal *prometheus.CounterVec
	logger        *zap.Logger
}

// New creates a Service. model may be nil to always use the heuristic.
// fallbackTotal is a counter vec with label "component", passed explicitly.
func New(model Completer, fallbackTotal *prometheus.CounterVec, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, fallbackTotal: fallbackTotal, logger: logger}
}

// Rank orders products against prefs. It never fails: model errors,
// malformed output and timeouts all produce the heuristic ranking.
func (s *Service) Rank(ctx context.Context, products []product.Product, prefs Preferences) (product.Ranking, Strategy) {
	if s.model == nil || len(products) == 0 {
		return Heuristic(products, prefs), StrategyHeuristic
	}

	content, err := s.model.CompleteJSON(ctx, systemPrompt, userPrompt(products, prefs))
	if err == nil {
		var r product.Ranking
		if r, err = parseModelRanking(content, products); err == nil {
			return r, StrategyModel
		}
	}

	logger.FromContextOr(ctx, s.logger).Warn("Ranking provider failed, using heuristic ranking", zap.Error(err))
	if s.fallbackTotal != nil {
		s.fallbackTotal.WithLabelValues("ranking").Inc()
	}
	return Heuristic(products, prefs), StrategyHeuristic
}
