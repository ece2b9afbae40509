package ranking

import "context"

// Completer sends a system/user prompt pair to a language model and returns
// the raw JSON content of the reply.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}
