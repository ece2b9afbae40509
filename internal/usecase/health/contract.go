package health

import "context"

// Pinger checks store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RankingChecker checks ranking provider availability.
type RankingChecker interface {
	HealthCheck(ctx context.Context) error
}
