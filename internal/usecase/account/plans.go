package account

import (
	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/user"
)

// Plan is a purchasable subscription offering.
type Plan struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ProductID string   `json:"productId"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	Period    string   `json:"period"`
	Features  []string `json:"features"`
	Badge     string   `json:"badge,omitempty"`
}

// Plans lists the subscription offerings priced in currency.
func Plans(currency string) []Plan {
	currency = domain.NormalizeCurrency(currency)
	gbp := currency == domain.CurrencyGBP
	return []Plan{
		{
			ID:        "weekly",
			Name:      "Weekly",
			ProductID: user.ProductWeekly,
			Price:     pick(gbp, 4.99, 5.99),
			Currency:  currency,
			Period:    "weekly",
			Features: []string{
				"Unlimited product searches",
				"AI-powered recommendations",
				"Access all categories",
				"Cancel anytime",
			},
		},
		{
			ID:        "yearly",
			Name:      "Yearly",
			ProductID: user.ProductYearly,
			Price:     pick(gbp, 24.99, 29.99),
			Currency:  currency,
			Period:    "yearly",
			Features: []string{
				"Unlimited product searches",
				"AI-powered recommendations",
				"Access all categories",
				"Best value - save 90%",
				"Cancel anytime",
			},
			Badge: "Best Value",
		},
	}
}

func pick(gbp bool, gbpPrice, usdPrice float64) float64 {
	if gbp {
		return gbpPrice
	}
	return usdPrice
}
