// Package chi exposes the recommendation API over HTTP.
package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/user"
	"github.com/kailas-cloud/zokey/internal/logger"
	"github.com/kailas-cloud/zokey/internal/metrics"
	accountuc "github.com/kailas-cloud/zokey/internal/usecase/account"
	healthuc "github.com/kailas-cloud/zokey/internal/usecase/health"
	searchuc "github.com/kailas-cloud/zokey/internal/usecase/search"
)

// DefaultSearchRateLimit is the per-user request budget for /api/search per minute.
const DefaultSearchRateLimit = 60

// SearchService runs recommendation searches.
type SearchService interface {
	Search(ctx context.Context, req searchuc.Request) (searchuc.Outcome, error)
}

// AccountService manages devices, quota and subscriptions.
type AccountService interface {
	Register(ctx context.Context, deviceID, region, currency string) (accountuc.Registration, error)
	Status(ctx context.Context, userID string) (user.User, error)
	ResetSearches(ctx context.Context, userID string) (user.User, error)
	Authorize(ctx context.Context, userID string) (user.User, error)
	Complete(ctx context.Context, u user.User, c accountuc.Completion) string
	ValidateSubscription(ctx context.Context, userID, receiptData string) (user.Subscription, error)
	RestoreSubscription(ctx context.Context, userID, receiptData string) (user.Subscription, error)
}

// CatalogSource renders the category tree per currency.
type CatalogSource interface {
	ForCurrency(currency string) *catalog.Catalog
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Config wires a Server.
type Config struct {
	Search   SearchService
	Accounts AccountService
	Catalog  CatalogSource
	Health   HealthChecker
	Tokens   TokenValidator
	Logger   *zap.Logger

	// AllowReset enables POST /api/auth/reset-searches.
	AllowReset      bool
	SearchRateLimit int
	CORSOrigins     []string
}

// Server serves the HTTP API.
type Server struct {
	search        SearchService
	accounts      AccountService
	catalog       CatalogSource
	health        HealthChecker
	tokens        TokenValidator
	logger        *zap.Logger
	allowReset    bool
	rateLimit     int
	corsOrigins   []string
	errorHandlers []errorHandler
	now           func() time.Time
}

// NewServer creates an HTTP API server.
func NewServer(cfg Config) *Server {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	limit := cfg.SearchRateLimit
	if limit <= 0 {
		limit = DefaultSearchRateLimit
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		search:        cfg.Search,
		accounts:      cfg.Accounts,
		catalog:       cfg.Catalog,
		health:        cfg.Health,
		tokens:        cfg.Tokens,
		logger:        l,
		allowReset:    cfg.AllowReset,
		rateLimit:     limit,
		corsOrigins:   origins,
		errorHandlers: defaultErrorHandlers(),
		now:           time.Now,
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware())

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.HealthCheck)

		r.Get("/categories", s.ListCategories)
		r.Get("/categories/{subcategoryId}/questions", s.GetQuestions)

		r.Get("/subscriptions/plans", s.ListPlans)
		r.Get("/legal/privacy", s.Privacy)
		r.Get("/legal/terms", s.Terms)

		r.Post("/auth/register", s.Register)

		r.Group(func(r chi.Router) {
			r.Use(SessionAuthMiddleware(s.tokens))

			r.Get("/auth/status", s.Status)
			if s.allowReset {
				r.Post("/auth/reset-searches", s.ResetSearches)
			}
			r.Post("/subscriptions/validate", s.ValidateSubscription)
			r.Post("/subscriptions/restore", s.RestoreSubscription)

			r.With(userRateLimit(s.rateLimit)).Post("/search", s.Search)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Route not found")
	})
	return r
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health.Check(r.Context()))
}

// handleDomainError maps err through the error handlers, falling back to a
// 500 with fallbackCode and fallbackMsg.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMsg string) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, fallbackCode, fallbackMsg)
}
