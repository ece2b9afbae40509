// Package health aggregates dependency checks for the health endpoint.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search keeps working through fallbacks.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentCache    = "cache"
	ComponentDatabase = "database"
	ComponentRanking  = "ranking"
)

// Report aggregates health check results.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

// Service coordinates health checks.
type Service struct {
	cache   Pinger
	db      Pinger
	ranking RankingChecker
	now     func() time.Time
}

// New creates a Service. db and ranking can be nil.
func New(cache, db Pinger, ranking RankingChecker) *Service {
	return &Service{cache: cache, db: db, ranking: ranking, now: time.Now}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentCache] = result(s.cache.Ping(ctx))
	if s.db != nil {
		checks[ComponentDatabase] = result(s.db.Ping(ctx))
	}
	if s.ranking != nil {
		checks[ComponentRanking] = result(s.ranking.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Timestamp: s.now().UTC()}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
