package ranking

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
)

const systemPrompt = `You are an expert product recommendation assistant. Your task is to rank products based on user preferences and explain why each product is recommended.

IMPORTANT RULES:
1. You MUST only rank products from the provided list - never invent or suggest other products
2. You MUST use the exact prices and specifications provided - never make up prices or features
3. Your explanations should be helpful, honest, and based only on the product information provided
4. Consider the user's stated priorities when ranking
5. Always return valid JSON in the exact format specified

You will receive:
- A list of products with their details
- User preferences (budget, priorities, category)

You must return a JSON object with:
- rankedProducts: array of products ranked by relevance (best match first)
- summary: a brief 1-2 sentence summary of the recommendations`

const responseShape = `Return EXACTLY this JSON structure:
{
  "rankedProducts": [
    {
      "asin": "product ASIN",
      "rank": 1,
      "matchScore": 0-100,
      "explanation": "2-3 sentences why this product matches user needs",
      "pros": ["pro 1", "pro 2", "pro 3"],
      "cons": ["con 1", "con 2"]
    }
  ],
  "summary": "Brief summary of the recommendations"
}

Rank the top 5 products only. Return ONLY valid JSON, no other text.`

func userPrompt(products []product.Product, prefs Preferences) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Please rank these products for a user looking for: %s\n\n", prefs.SubcategoryName)
	b.WriteString("USER PREFERENCES:\n")
	fmt.Fprintf(&b, "- Budget: %s to %s %s\n", formatAmount(prefs.Budget.Min), formatAmount(prefs.Budget.Max), prefs.Currency)
	fmt.Fprintf(&b, "- Priorities: %s\n", strings.Join(prefs.Priorities, ", "))
	fmt.Fprintf(&b, "- Additional preferences: %s\n\n", formatAnswers(prefs.Answers))
	b.WriteString("PRODUCTS TO RANK:\n")
	for i, p := range products {
		writeProduct(&b, i+1, p)
	}
	b.WriteString("\n")
	b.WriteString(responseShape)
	return b.String()
}

func writeProduct(b *strings.Builder, n int, p product.Product) {
	fmt.Fprintf(b, "\n%d. ASIN: %s\n", n, p.ASIN)
	fmt.Fprintf(b, "   Title: %s\n", p.Title)
	fmt.Fprintf(b, "   Price: %s %.2f", p.Currency, p.Price)
	if p.OriginalPrice != nil {
		fmt.Fprintf(b, " (was %.2f)", *p.OriginalPrice)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "   Rating: %s/5 (%s reviews)\n", formatRating(p.Rating), numbers.Sprintf("%d", p.ReviewCount))
	prime := "No"
	if p.IsPrime {
		prime = "Yes"
	}
	fmt.Fprintf(b, "   Prime: %s\n", prime)
	features := p.Features
	if len(features) > 3 {
		features = features[:3]
	}
	fmt.Fprintf(b, "   Features: %s\n", strings.Join(features, "; "))
}

// formatAnswers renders every answer except budget and priorities as "id: value".
func formatAnswers(answers []query.Answer) string {
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		if a.QuestionID == catalog.QuestionBudget || a.QuestionID == catalog.QuestionPriorities {
			continue
		}
		switch a.Value.Kind() {
		case query.KindRange:
			r, _ := a.Value.Range()
			parts = append(parts, fmt.Sprintf("%s: %s-%s", a.QuestionID, formatAmount(r.Min), formatAmount(r.Max)))
		case query.KindList:
			parts = append(parts, fmt.Sprintf("%s: %s", a.QuestionID, strings.Join(a.Value.Items(), ", ")))
		case query.KindScalar:
			parts = append(parts, fmt.Sprintf("%s: %s", a.QuestionID, a.Value.String()))
		}
	}
	return strings.Join(parts, ", ")
}

func formatAmount(v float64) string {
	return formatRating(v)
}
