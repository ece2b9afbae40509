package ranking

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
)

type modelEntry struct {
	ASIN        *string  `json:"asin"`
	Rank        *float64 `json:"rank"`
	MatchScore  *float64 `json:"matchScore"`
	Explanation *string  `json:"explanation"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

type modelResponse struct {
	RankedProducts *[]modelEntry `json:"rankedProducts"`
	Summary        *string       `json:"summary"`
}

// parseModelRanking validates untrusted model output against the candidate
// list and merges it with the original product records. Any deviation from
// the expected shape, including a reference to an unknown product, is
// reported as domain.ErrMalformedResponse.
func parseModelRanking(content string, candidates []product.Product) (product.Ranking, error) {
	if strings.TrimSpace(content) == "" {
		return product.Ranking{}, fmt.Errorf("%w: empty content", domain.ErrMalformedResponse)
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return product.Ranking{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if resp.RankedProducts == nil || resp.Summary == nil {
		return product.Ranking{}, fmt.Errorf("%w: missing rankedProducts or summary", domain.ErrMalformedResponse)
	}
	entries := *resp.RankedProducts
	if len(entries) == 0 && len(candidates) > 0 {
		return product.Ranking{}, fmt.Errorf("%w: no ranked products", domain.ErrMalformedResponse)
	}

	byASIN := make(map[string]product.Product, len(candidates))
	for _, p := range candidates {
		byASIN[p.ASIN] = p
	}

	ranked := make([]product.RankedProduct, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if err := e.validate(); err != nil {
			return product.Ranking{}, fmt.Errorf("%w: entry %d: %w", domain.ErrMalformedResponse, i, err)
		}
		p, ok := byASIN[*e.ASIN]
		if !ok {
			return product.Ranking{}, fmt.Errorf("%w: unknown product %q", domain.ErrMalformedResponse, *e.ASIN)
		}
		if _, dup := seen[*e.ASIN]; dup {
			return product.Ranking{}, fmt.Errorf("%w: duplicate product %q", domain.ErrMalformedResponse, *e.ASIN)
		}
		seen[*e.ASIN] = struct{}{}

		ranked = append(ranked, product.RankedProduct{
			Product:     p,
			Rank:        int(*e.Rank),
			MatchScore:  int(math.Round(*e.MatchScore)),
			Explanation: *e.Explanation,
			Pros:        nonNil(e.Pros),
			Cons:        nonNil(e.Cons),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	for i, r := range ranked {
		if r.Rank != i+1 {
			return product.Ranking{}, fmt.Errorf("%w: ranks are not contiguous from 1", domain.ErrMalformedResponse)
		}
	}
	if len(ranked) > product.MaxRanked {
		ranked = ranked[:product.MaxRanked]
	}

	return product.Ranking{Products: ranked, Summary: *resp.Summary}, nil
}

func (e modelEntry) validate() error {
	switch {
	case e.ASIN == nil || *e.ASIN == "":
		return fmt.Errorf("missing asin")
	case e.Rank == nil || *e.Rank != math.Trunc(*e.Rank) || *e.Rank < 1:
		return fmt.Errorf("invalid rank")
	case e.MatchScore == nil || math.IsNaN(*e.MatchScore) || *e.MatchScore < 0 || *e.MatchScore > 100:
		return fmt.Errorf("invalid matchScore")
	case e.Explanation == nil:
		return fmt.Errorf("missing explanation")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
