package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/auth"
	"github.com/kailas-cloud/zokey/internal/config"
	dbPostgres "github.com/kailas-cloud/zokey/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/zokey/internal/db/redis"
	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/synthetic"
	logpkg "github.com/kailas-cloud/zokey/internal/logger"
	"github.com/kailas-cloud/zokey/internal/metrics"
	"github.com/kailas-cloud/zokey/internal/repository/budget"
	"github.com/kailas-cloud/zokey/internal/repository/searchcache"
	userrepo "github.com/kailas-cloud/zokey/internal/repository/user"
	"github.com/kailas-cloud/zokey/internal/resilience"
	"github.com/kailas-cloud/zokey/internal/transport/appstore"
	chiTransport "github.com/kailas-cloud/zokey/internal/transport/chi"
	openaiRanker "github.com/kailas-cloud/zokey/internal/transport/openai"
	"github.com/kailas-cloud/zokey/internal/transport/paapi"
	accountuc "github.com/kailas-cloud/zokey/internal/usecase/account"
	healthuc "github.com/kailas-cloud/zokey/internal/usecase/health"
	"github.com/kailas-cloud/zokey/internal/usecase/normalize"
	rankinguc "github.com/kailas-cloud/zokey/internal/usecase/ranking"
	"github.com/kailas-cloud/zokey/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/zokey/internal/usecase/search"
	"github.com/kailas-cloud/zokey/internal/usecase/tokenbudget"
	"github.com/kailas-cloud/zokey/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting zokey API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
		zap.Bool("catalog_mock", cfg.Catalog.MockMode),
		zap.Bool("ranking_mock", cfg.Ranking.MockMode),
		zap.Bool("appstore_mock", cfg.AppStore.MockMode),
	)

	// Cache store (search cache + users when Postgres is not configured)
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	executor := resilience.NewExecutor(resilienceConfig(cfg.Resilience), logger)

	// Optional Postgres for users, history and analytics
	var (
		users    accountuc.UserStore
		history  accountuc.History
		dbPinger healthuc.Pinger
	)
	if cfg.Database.DSN != "" {
		conn := openPostgres(ctx, cfg.Database.DSN, logger)
		defer func() { _ = conn.Close() }()
		userRepo := dbPostgres.NewUserRepo(conn)
		users = userRepo
		history = dbPostgres.NewHistoryRepo(conn)
		dbPinger = userRepo
	} else {
		logger.Info("No database configured, keeping users in the cache store")
		users = userrepo.New(store, cfg.Cache.KeyPrefix)
	}

	// Catalog provider. Pass nil interface (not typed nil pointer!) when unconfigured:
	// the retrieval adapter then serves the synthetic catalog.
	var provider retrieval.Provider
	if !cfg.Catalog.MockMode {
		client := paapi.NewClient(&paapi.Config{
			AccessKey:   cfg.Catalog.AccessKey,
			SecretKey:   cfg.Catalog.SecretKey,
			PartnerTags: cfg.Catalog.PartnerTags,
			Timeout:     time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
			Executor:    executor,
			Logger:      logger,
		})
		if client.Configured() {
			provider = client
		} else {
			logger.Warn("Catalog credentials missing, using synthetic catalog")
		}
	}

	// Ranking model, same nil-interface rule: nil means heuristic only.
	var (
		completer     rankinguc.Completer
		rankingHealth healthuc.RankingChecker
	)
	if !cfg.Ranking.MockMode && cfg.Ranking.APIKey != "" {
		r := openaiRanker.NewRanker(&openaiRanker.Config{
			APIKey:      cfg.Ranking.APIKey,
			BaseURL:     cfg.Ranking.BaseURL,
			Model:       cfg.Ranking.Model,
			Temperature: cfg.Ranking.Temperature,
			MaxTokens:   cfg.Ranking.MaxTokens,
			Timeout:     time.Duration(cfg.Ranking.TimeoutSec) * time.Second,
			Executor:    executor,
			Logger:      logger,
		})
		tracker := tokenbudget.NewTracker("openai", cfg.Cache.KeyPrefix, tokenbudget.Limits{
			Daily:   cfg.Ranking.DailyTokenBudget,
			Monthly: cfg.Ranking.MonthlyTokenBudget,
			Action:  tokenbudget.ParseAction(cfg.Ranking.BudgetAction),
		}, logger).WithStore(ctx, budget.New(store, 0, 0))
		completer = tokenbudget.NewGuard(r, "openai", tracker, logger)
		rankingHealth = r
		logger.Info("Model ranking enabled", zap.String("model", cfg.Ranking.Model))
	}

	var receipts accountuc.ReceiptValidator
	if cfg.AppStore.MockMode {
		receipts = appstore.NewMock()
	} else {
		receipts = appstore.NewClient(&appstore.Config{
			SharedSecret: cfg.AppStore.SharedSecret,
			Timeout:      time.Duration(cfg.AppStore.TimeoutSec) * time.Second,
			Executor:     executor,
			Logger:       logger,
		})
	}

	tokens, err := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		logger.Fatal("Failed to create token manager", zap.Error(err))
	}

	// Use case services
	categories := catalog.MustSource()
	searchSvc := searchuc.New(searchuc.Config{
		Normalizer: normalize.New(categories),
		Categories: categories,
		Cache:      searchcache.New(store, cfg.Cache.KeyPrefix),
		Retriever:  retrieval.New(provider, synthetic.MustLoad(), metrics.FallbackTotal, logger),
		Ranker:     rankinguc.New(completer, metrics.FallbackTotal, logger),
		TTL:        time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		CacheTotal: metrics.SearchCacheTotal,
		Logger:     logger,
	})
	accountSvc := accountuc.New(accountuc.Config{
		Users:           users,
		History:         history,
		Receipts:        receipts,
		Tokens:          tokens,
		FreeSearchLimit: cfg.Quota.FreeSearchLimit,
		Logger:          logger,
	})
	healthSvc := healthuc.New(store, dbPinger, rankingHealth)

	server := chiTransport.NewServer(chiTransport.Config{
		Search:          searchSvc,
		Accounts:        accountSvc,
		Catalog:         categories,
		Health:          healthSvc,
		Tokens:          tokens,
		Logger:          logger,
		AllowReset:      cfg.Quota.AllowReset,
		SearchRateLimit: cfg.Quota.SearchRateLimit,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func openPostgres(ctx context.Context, dsn string, logger *zap.Logger) *sql.DB {
	conn, err := dbPostgres.Open(ctx, dsn)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := dbPostgres.EnsureSchema(ctx, conn); err != nil {
		logger.Fatal("Failed to apply database schema", zap.Error(err))
	}
	logger.Info("Connected to database")
	return conn
}

func resilienceConfig(c config.ResilienceConfig) resilience.Config {
	out := resilience.DefaultConfig()
	if c.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = c.RetryMaxAttempts
	}
	if c.RetryInitialBackoffMS > 0 {
		out.RetryInitialBackoff = time.Duration(c.RetryInitialBackoffMS) * time.Millisecond
	}
	if c.RetryMaxBackoffMS > 0 {
		out.RetryMaxBackoff = time.Duration(c.RetryMaxBackoffMS) * time.Millisecond
	}
	out.BreakerEnabled = !c.BreakerDisabled
	if c.BreakerMinRequests > 0 {
		out.BreakerMinRequests = c.BreakerMinRequests
	}
	if c.BreakerFailureRatio > 0 {
		out.BreakerFailureRatio = c.BreakerFailureRatio
	}
	if c.BreakerOpenTimeoutSec > 0 {
		out.BreakerOpenTimeout = time.Duration(c.BreakerOpenTimeoutSec) * time.Second
	}
	return out
}
