package retrieval

// AllCategories is the provider index used when no path segment maps.
const AllCategories = "All"

var searchIndex = map[string]string{
	"electronics":  "Electronics",
	"phones":       "Electronics",
	"laptops":      "Computers",
	"tablets":      "Computers",
	"headphones":   "Electronics",
	"smartwatches": "Electronics",
	"home":         "HomeAndKitchen",
	"vacuum":       "HomeAndKitchen",
	"coffee":       "HomeAndKitchen",
	"airfryer":     "HomeAndKitchen",
	"beauty":       "Beauty",
	"skincare":     "Beauty",
	"haircare":     "Beauty",
	"fitness":      "SportingGoods",
	"homegym":      "SportingGoods",
	"running":      "Fashion",
	"toys":         "ToysAndGames",
	"kidstoys":     "ToysAndGames",
	"videogames":   "VideoGames",
	"fashion":      "Fashion",
	"watches":      "Watches",
	"bags":         "Fashion",
}

// SearchIndex maps a category path to a provider index. The first mapped
// segment wins.
func SearchIndex(categoryPath []string) string {
	for _, seg := range categoryPath {
		if idx, ok := searchIndex[seg]; ok {
			return idx
		}
	}
	return AllCategories
}
