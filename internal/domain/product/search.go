package product

import "github.com/kailas-cloud/zokey/internal/domain/query"

// DefaultResultCap is the number of products requested from a provider.
const DefaultResultCap = 10

// SearchRequest is a provider-agnostic product search.
type SearchRequest struct {
	Keywords     string
	CategoryHint string
	PriceMin     *float64
	PriceMax     *float64
	Brand        string
	SortBy       query.SortOrder
	ResultCap    int
	Region       string
}
