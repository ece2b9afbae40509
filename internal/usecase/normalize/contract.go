package normalize

import "github.com/kailas-cloud/zokey/internal/domain/catalog"

// CategoryResolver resolves a subcategory id to its place in the catalog.
type CategoryResolver interface {
	Lookup(subcategoryID, region string) (catalog.Category, catalog.Subcategory, error)
}
