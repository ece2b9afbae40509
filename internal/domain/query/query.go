package query

// SortOrder is the provider-side sort preference.
type SortOrder string

// Sort orders.
const (
	SortRelevance SortOrder = "relevance"
	SortPriceLow  SortOrder = "price_low"
	SortPriceHigh SortOrder = "price_high"
	SortRating    SortOrder = "rating"
)

// Budget is a {min,max} price range.
type Budget struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UnconstrainedMax is the ceiling of the default budget. A budget equal to
// Unconstrained() means "no price constraint", not a real budget.
const UnconstrainedMax = 10000

// Unconstrained is the wide-open default budget.
func Unconstrained() Budget { return Budget{Min: 0, Max: UnconstrainedMax} }

// IsUnconstrained reports whether b is the default wide-open range.
func (b Budget) IsUnconstrained() bool { return b == Unconstrained() }

// Contains reports whether price lies within [Min, Max].
func (b Budget) Contains(price float64) bool { return price >= b.Min && price <= b.Max }

// Filters narrow a product search. Nil price bounds mean no constraint.
type Filters struct {
	Brand    []string  `json:"brand,omitempty"`
	PriceMin *float64  `json:"priceMin,omitempty"`
	PriceMax *float64  `json:"priceMax,omitempty"`
	SortBy   SortOrder `json:"sortBy,omitempty"`
}

// Normalized is the canonical, order-independent representation of a search.
// It is created once per request and never mutated.
type Normalized struct {
	Keywords     []string `json:"keywords"`
	Filters      Filters  `json:"filters"`
	CategoryPath []string `json:"categoryPath"`
}

// CategoryID returns the first category path segment.
func (q Normalized) CategoryID() string {
	if len(q.CategoryPath) == 0 {
		return ""
	}
	return q.CategoryPath[0]
}

// SubcategoryID returns the last category path segment.
func (q Normalized) SubcategoryID() string {
	if len(q.CategoryPath) < 2 {
		return ""
	}
	return q.CategoryPath[len(q.CategoryPath)-1]
}

// PriceRange returns the filter bounds, using ok=false for unset sides.
func (f Filters) PriceRange() (lo float64, hasLo bool, hi float64, hasHi bool) {
	if f.PriceMin != nil {
		lo, hasLo = *f.PriceMin, true
	}
	if f.PriceMax != nil {
		hi, hasHi = *f.PriceMax, true
	}
	return lo, hasLo, hi, hasHi
}
