package tokenbudget

import "context"

// Store persists budget counters. IncrBy may be called repeatedly for the same key.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Completer is the guarded language model client.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Checker is the budget surface the guard needs.
type Checker interface {
	Check(ctx context.Context) error
	Record(ctx context.Context, tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}
