// Package normalize turns questionnaire answers into a canonical search query.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/query"
)

// HashLength is the number of hex characters in a query hash.
const HashLength = 16

const questionSort = "sort"

// sentinels are answer tokens that mean "no preference".
var sentinels = map[string]struct{}{
	"":              {},
	"any":           {},
	"no preference": {},
}

// descriptive lists question ids whose answers become search keywords.
var descriptive = map[string]struct{}{
	"type":     {},
	"style":    {},
	"usage":    {},
	"concern":  {},
	"skintype": {},
	"age":      {},
	"platform": {},
	"genre":    {},
	"phone":    {},
	"wireless": {},
	"size":     {},
}

// Service normalizes answers against the category catalog.
type Service struct {
	catalog CategoryResolver
}

// New creates a Service.
func New(c CategoryResolver) *Service {
	return &Service{catalog: c}
}

// Normalize builds the canonical query for a subcategory and answer set.
// Keyword membership and filters do not depend on answer order or on the
// casing and surrounding whitespace of free-text values.
func (s *Service) Normalize(subcategoryID string, answers []query.Answer, region string) (query.Normalized, error) {
	cat, sub, err := s.catalog.Lookup(subcategoryID, region)
	if err != nil {
		return query.Normalized{}, fmt.Errorf("normalize %q: %w", subcategoryID, err)
	}

	keywords := []string{sub.Name}
	var (
		brands  []string
		budgets []query.Budget
		sortBy  query.SortOrder
	)

	for _, a := range answers {
		switch a.QuestionID {
		case catalog.QuestionBrand:
			for _, tok := range a.Value.Tokens() {
				if isSentinel(tok) {
					continue
				}
				brands = append(brands, canonical(tok))
				keywords = append(keywords, tok)
			}
		case catalog.QuestionBudget:
			if b, ok := validRange(a.Value); ok {
				budgets = append(budgets, b)
			}
		case catalog.QuestionPriorities:
			// ranking preference only
		case questionSort:
			if o, ok := parseSort(a.Value.String()); ok {
				sortBy = o
			}
		default:
			if _, ok := descriptive[a.QuestionID]; ok {
				keywords = append(keywords, a.Value.Tokens()...)
				continue
			}
			if a.Value.Kind() == query.KindScalar && !isSentinel(a.Value.String()) {
				keywords = append(keywords, a.Value.String())
			}
		}
	}

	return query.Normalized{
		Keywords:     cleanKeywords(keywords),
		Filters:      buildFilters(brands, budgets, sortBy),
		CategoryPath: []string{cat.ID, sub.ID},
	}, nil
}

// Hash digests the query content and region into a short stable key.
func Hash(q query.Normalized, region string) string {
	keywords := make([]string, len(q.Keywords))
	copy(keywords, q.Keywords)
	sort.Strings(keywords)

	payload := struct {
		Keywords     []string      `json:"keywords"`
		Filters      query.Filters `json:"filters"`
		CategoryPath []string      `json:"categoryPath"`
		Region       string        `json:"region"`
	}{keywords, q.Filters, q.CategoryPath, region}

	// Marshalling plain strings, slices and float pointers cannot fail.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:HashLength]
}

// ExtractPriorities returns the priorities answer tokens verbatim, or an empty list.
func ExtractPriorities(answers []query.Answer) []string {
	for _, a := range answers {
		if a.QuestionID != catalog.QuestionPriorities {
			continue
		}
		toks := a.Value.Tokens()
		out := make([]string, len(toks))
		copy(out, toks)
		return out
	}
	return []string{}
}

// ExtractBudget returns the intersection of the budget answers' ranges. When
// no valid range is given, or the ranges do not overlap, it returns
// query.Unconstrained(), which callers must treat as "no price constraint".
func ExtractBudget(answers []query.Answer) query.Budget {
	var budgets []query.Budget
	for _, a := range answers {
		if a.QuestionID != catalog.QuestionBudget {
			continue
		}
		if b, ok := validRange(a.Value); ok {
			budgets = append(budgets, b)
		}
	}
	if b, ok := intersect(budgets); ok {
		return b
	}
	return query.Unconstrained()
}

func validRange(v query.Value) (query.Budget, bool) {
	b, ok := v.Range()
	if !ok || b.Min < 0 || b.Max < b.Min {
		return query.Budget{}, false
	}
	return b, true
}

// intersect narrows budgets to their common range. An empty list or an empty
// intersection reports false.
func intersect(budgets []query.Budget) (query.Budget, bool) {
	if len(budgets) == 0 {
		return query.Budget{}, false
	}
	out := budgets[0]
	for _, b := range budgets[1:] {
		out.Min = max(out.Min, b.Min)
		out.Max = min(out.Max, b.Max)
	}
	if out.Min > out.Max {
		return query.Budget{}, false
	}
	return out, true
}

// buildFilters combines brand and budget answers. Repeated budget answers
// intersect so the result is independent of their order; disjoint budgets
// leave the price filter unset.
func buildFilters(brands []string, budgets []query.Budget, sortBy query.SortOrder) query.Filters {
	f := query.Filters{SortBy: sortBy}

	if len(brands) > 0 {
		sort.Strings(brands)
		f.Brand = dedupe(brands)
	}

	if b, ok := intersect(budgets); ok {
		f.PriceMin, f.PriceMax = &b.Min, &b.Max
	}
	return f
}

func cleanKeywords(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = canonical(k)
		if isSentinel(k) {
			continue
		}
		out = append(out, k)
	}
	return dedupe(out)
}

// dedupe removes repeats, keeping the first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// canonical lower-cases and collapses whitespace.
func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func isSentinel(s string) bool {
	_, ok := sentinels[canonical(s)]
	return ok
}

func parseSort(s string) (query.SortOrder, bool) {
	switch o := query.SortOrder(canonical(s)); o {
	case query.SortRelevance, query.SortPriceLow, query.SortPriceHigh, query.SortRating:
		return o, true
	}
	return "", false
}
