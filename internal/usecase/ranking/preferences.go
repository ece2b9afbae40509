// Package ranking orders candidate products against user preferences, either
// with a language model or with a deterministic heuristic.
package ranking

import "github.com/kailas-cloud/zokey/internal/domain/query"

// Preferences describe what the user asked for.
type Preferences struct {
	SubcategoryName string
	Answers         []query.Answer
	Priorities      []string
	// Budget is query.Unconstrained() when the user gave none.
	Budget   query.Budget
	Currency string
}
