package ranking

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
)

const (
	minPros = 2
	maxPros = 4
	maxCons = 2
)

var numbers = message.NewPrinter(language.English)

// genericPros top up products with too few distinguishing strengths.
var genericPros = []string{
	"Matches your selected category",
	"Available to order now",
}

// Heuristic ranks products with a deterministic score:
// budget fit (40 in range, 20 under, 0 over) + rating×10 +
// min(reviews/1000, 10) + 5 for delivery eligibility.
// Ties keep input order.
func Heuristic(products []product.Product, prefs Preferences) product.Ranking {
	type scored struct {
		p     product.Product
		score float64
	}

	items := make([]scored, len(products))
	for i, p := range products {
		items[i] = scored{p: p, score: Score(p, prefs.Budget)}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	n := min(len(items), product.MaxRanked)
	ranked := make([]product.RankedProduct, n)
	for i := range n {
		rank := i + 1
		p := items[i].p
		ranked[i] = product.RankedProduct{
			Product:     p,
			Rank:        rank,
			MatchScore:  clampScore(items[i].score),
			Explanation: explanation(p, prefs.Budget, rank),
			Pros:        pros(p),
			Cons:        cons(p),
		}
	}

	return product.Ranking{Products: ranked, Summary: summary(ranked, prefs.SubcategoryName)}
}

// Score computes the heuristic score for a single product.
func Score(p product.Product, b query.Budget) float64 {
	var s float64
	switch {
	case p.Price >= b.Min && p.Price <= b.Max:
		s += 40
	case p.Price < b.Min:
		s += 20
	}
	s += p.Rating * 10
	s += math.Min(float64(p.ReviewCount)/1000, 10)
	if p.IsPrime {
		s += 5
	}
	return s
}

func clampScore(s float64) int {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	return min(int(math.Round(s)), 100)
}

func explanation(p product.Product, b query.Budget, rank int) string {
	priceStatus := "within your budget"
	if p.Price > b.Max {
		priceStatus = "slightly above budget but worth considering"
	}
	rating := formatRating(p.Rating)
	reviews := numbers.Sprintf("%d", p.ReviewCount)

	switch {
	case rank == 1:
		return fmt.Sprintf("This is our top recommendation because it perfectly balances quality and value. "+
			"With a %s-star rating from %s reviews, it's %s and highly regarded by customers.",
			rating, reviews, priceStatus)
	case rank <= 3:
		return fmt.Sprintf("A strong contender with %s stars and %s reviews. "+
			"It's %s and offers good performance for your needs.",
			rating, reviews, priceStatus)
	default:
		return fmt.Sprintf("Worth considering as an alternative option. "+
			"Rated %s stars with %s reviews, it provides good value %s.",
			rating, reviews, priceStatus)
	}
}

func pros(p product.Product) []string {
	out := make([]string, 0, maxPros+1)

	switch {
	case p.Rating >= 4.5:
		out = append(out, "Excellent customer ratings")
	case p.Rating >= 4.0:
		out = append(out, "Strong customer reviews")
	}

	switch {
	case p.ReviewCount > 5000:
		out = append(out, "Very popular choice with many reviews")
	case p.ReviewCount > 1000:
		out = append(out, "Well-reviewed by many customers")
	}

	if p.IsPrime {
		out = append(out, "Prime delivery available")
	}
	if d := p.Discount(); d > 0 {
		out = append(out, fmt.Sprintf("Currently %d%% off", d))
	}
	if len(p.Features) > 0 {
		out = append(out, p.Features[0])
	}

	for _, g := range genericPros {
		if len(out) >= minPros {
			break
		}
		out = append(out, g)
	}
	if len(out) > maxPros {
		out = out[:maxPros]
	}
	return out
}

func cons(p product.Product) []string {
	out := make([]string, 0, 3)
	if p.Rating < 4.0 {
		out = append(out, "Mixed customer reviews")
	}
	if !p.IsPrime {
		out = append(out, "Not eligible for Prime delivery")
	}
	if p.ReviewCount < 500 {
		out = append(out, "Limited customer feedback available")
	}
	if len(out) == 0 {
		out = append(out, "May have limited color/size options")
	}
	if len(out) > maxCons {
		out = out[:maxCons]
	}
	return out
}

func summary(ranked []product.RankedProduct, subcategory string) string {
	if len(ranked) == 0 {
		return fmt.Sprintf("We couldn't find a strong match for %s with your current preferences.", subcategory)
	}
	words := strings.Fields(ranked[0].Title)
	if len(words) > 4 {
		words = words[:4]
	}
	return fmt.Sprintf("Based on your preferences for %s, we recommend the %s as the best match. "+
		"It offers excellent value within your budget with strong ratings.",
		subcategory, strings.Join(words, " "))
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
