package search

import (
	"strconv"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
)

// Disclaimer accompanies every recommendation.
const Disclaimer = "Prices and availability are subject to change. All purchases are made through Amazon. We earn a commission from qualifying purchases."

// Criteria echoes the interpreted request back to the client.
type Criteria struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Budget      string   `json:"budget"`
	Priorities  []string `json:"priorities"`
}

// Recommendation is the search response body.
type Recommendation struct {
	SearchID       string                  `json:"searchId"`
	Products       []product.RankedProduct `json:"products"`
	Summary        string                  `json:"summary"`
	SearchCriteria Criteria                `json:"searchCriteria"`
	Disclaimer     string                  `json:"disclaimer"`
	Timestamp      time.Time               `json:"timestamp"`
}

// Recommendation builds the response envelope for o.
func (o Outcome) Recommendation(searchID string, now time.Time) Recommendation {
	priorities := o.Priorities
	if priorities == nil {
		priorities = []string{}
	}
	products := o.Result.Ranking.Products
	if products == nil {
		products = []product.RankedProduct{}
	}
	return Recommendation{
		SearchID: searchID,
		Products: products,
		Summary:  o.Result.Ranking.Summary,
		SearchCriteria: Criteria{
			Category:    o.CategoryName,
			Subcategory: o.SubcategoryName,
			Budget:      FormatBudget(o.Budget.Min, o.Budget.Max, o.Currency),
			Priorities:  priorities,
		},
		Disclaimer: Disclaimer,
		Timestamp:  now.UTC(),
	}
}

// FormatBudget renders a budget range such as "£500 - £1500".
func FormatBudget(lo, hi float64, currency string) string {
	sym := domain.CurrencySymbol(currency)
	return sym + formatAmount(lo) + " - " + sym + formatAmount(hi)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
