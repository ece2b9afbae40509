package domain

import "context"

type modelUsageKey struct{}

// ModelUsage collects language model token usage for one ranking call.
// The caller puts a mutable pointer into the context, the transport adds to it.
type ModelUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *ModelUsage) {
	u := &ModelUsage{}
	return context.WithValue(ctx, modelUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from ctx. Returns nil if not set.
func UsageFromContext(ctx context.Context) *ModelUsage {
	u, _ := ctx.Value(modelUsageKey{}).(*ModelUsage)
	return u
}

// Add records consumed tokens. Safe on a nil receiver.
func (u *ModelUsage) Add(prompt, completion int) {
	if u != nil {
		u.PromptTokens += prompt
		u.CompletionTokens += completion
	}
}

// Total returns prompt plus completion tokens.
func (u *ModelUsage) Total() int {
	if u == nil {
		return 0
	}
	return u.PromptTokens + u.CompletionTokens
}
