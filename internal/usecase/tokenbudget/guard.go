package tokenbudget

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/logger"
	"github.com/kailas-cloud/zokey/internal/metrics"
)

// Guard wraps a Completer with budget enforcement. Token usage is read from
// the domain.ModelUsage collector the transport fills in.
type Guard struct {
	inner    Completer
	provider string
	budget   Checker
	logger   *zap.Logger
}

// NewGuard wraps inner. budget may be nil to disable enforcement.
func NewGuard(inner Completer, provider string, budget Checker, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{inner: inner, provider: provider, budget: budget, logger: logger}
}

// CompleteJSON checks the budget, delegates, and records consumed tokens.
func (g *Guard) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	log := logger.FromContextOr(ctx, g.logger)

	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			log.Warn("Ranking token budget exceeded", zap.String("provider", g.provider), zap.Error(err))
			return "", fmt.Errorf("budget check: %w", err)
		}
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	content, err := g.inner.CompleteJSON(ctx, system, user)

	if g.budget != nil && usage.Total() > 0 {
		g.budget.Record(ctx, int64(usage.Total()))
		remaining := metrics.RankingBudgetTokensRemaining
		remaining.WithLabelValues(g.provider, "daily").Set(float64(g.budget.RemainingDaily()))
		remaining.WithLabelValues(g.provider, "monthly").Set(float64(g.budget.RemainingMonthly()))
	}
	if err != nil {
		return "", err
	}

	log.Debug("Ranking completion accounted",
		zap.String("provider", g.provider),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	)
	return content, nil
}
