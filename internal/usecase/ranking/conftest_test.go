package ranking

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
)

// mockCompleter implements Completer for tests.
type mockCompleter struct {
	calls      int
	lastSystem string
	lastUser   string
	completeFn func(ctx context.Context, system, user string) (string, error)
}

func (m *mockCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	m.calls++
	m.lastSystem, m.lastUser = system, user
	if m.completeFn != nil {
		return m.completeFn(ctx, system, user)
	}
	return "", fmt.Errorf("not configured")
}

func ptr(f float64) *float64 { return &f }

func candidates() []product.Product {
	return []product.Product{
		{ASIN: "A1", Title: "Budget Laptop 14 inch Silver Edition", Price: 450, Currency: "GBP", Rating: 4.1, ReviewCount: 320, IsPrime: false, Features: []string{"8GB RAM"}},
		{ASIN: "A2", Title: "Pro Laptop 16 M3", Price: 1400, Currency: "GBP", OriginalPrice: ptr(1600), Rating: 4.8, ReviewCount: 7800, IsPrime: true, Features: []string{"M3 chip", "18GB RAM", "XDR", "MagSafe"}},
		{ASIN: "A3", Title: "Gaming Laptop RTX", Price: 1900, Currency: "GBP", Rating: 4.6, ReviewCount: 2100, IsPrime: true, Features: []string{"RTX 4070"}},
		{ASIN: "A4", Title: "Office Laptop", Price: 800, Currency: "GBP", Rating: 3.8, ReviewCount: 1500, IsPrime: true},
		{ASIN: "A5", Title: "Slim Laptop", Price: 999, Currency: "GBP", Rating: 4.4, ReviewCount: 900, IsPrime: true, Features: []string{"1.1kg"}},
		{ASIN: "A6", Title: "Convertible Laptop", Price: 700, Currency: "GBP", Rating: 4.0, ReviewCount: 50, IsPrime: false},
	}
}

func laptopPrefs() Preferences {
	return Preferences{
		SubcategoryName: "Laptops",
		Answers: []query.Answer{
			{QuestionID: "usage", Value: query.Scalar("work")},
			{QuestionID: "budget", Value: query.RangeValue(500, 1500)},
			{QuestionID: "priorities", Value: query.List("performance", "battery")},
		},
		Priorities: []string{"performance", "battery"},
		Budget:     query.Budget{Min: 500, Max: 1500},
		Currency:   "GBP",
	}
}
