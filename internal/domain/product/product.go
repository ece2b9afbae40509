// Package product defines catalog products and ranked recommendations.
package product

import (
	"fmt"
)

// MaxRanked is the size of a ranked result list.
const MaxRanked = 5

// Product is a retrieved catalog item.
type Product struct {
	ASIN          string   `json:"asin"`
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	ImageURL      string   `json:"imageUrl"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
	AmazonURL     string   `json:"amazonUrl"`
	IsPrime       bool     `json:"isPrime"`
	Availability  string   `json:"availability"`
	Features      []string `json:"features"`
}

// Discount returns the rounded percentage discount, or 0 when not discounted.
func (p Product) Discount() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price || *p.OriginalPrice <= 0 {
		return 0
	}
	pct := (*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100
	return int(pct + 0.5)
}

// RankedProduct is a product with its recommendation context.
type RankedProduct struct {
	Product
	Rank        int      `json:"rank"`
	MatchScore  int      `json:"matchScore"`
	Explanation string   `json:"explanation"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

// Ranking is an ordered recommendation list with a summary.
type Ranking struct {
	Products []RankedProduct `json:"rankedProducts"`
	Summary  string          `json:"summary"`
}

// Validate checks ranks are contiguous from 1, scores are within 0..100
// and the list is not longer than MaxRanked.
func (r Ranking) Validate() error {
	if len(r.Products) > MaxRanked {
		return fmt.Errorf("ranking has %d products, max %d", len(r.Products), MaxRanked)
	}
	for i, p := range r.Products {
		if p.Rank != i+1 {
			return fmt.Errorf("product %s has rank %d at position %d", p.ASIN, p.Rank, i+1)
		}
		if p.MatchScore < 0 || p.MatchScore > 100 {
			return fmt.Errorf("product %s has match score %d", p.ASIN, p.MatchScore)
		}
	}
	return nil
}

// Result pairs the retrieved candidates with their ranking.
type Result struct {
	Products []Product `json:"rawResults"`
	Ranking  Ranking   `json:"rankedResult"`
}
