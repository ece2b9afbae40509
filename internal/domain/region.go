package domain

// Supported regions.
const (
	RegionUK = "UK"
	RegionUS = "US"
)

// Supported currencies.
const (
	CurrencyGBP = "GBP"
	CurrencyUSD = "USD"
)

// DefaultRegion is used when a caller does not supply one.
const DefaultRegion = RegionUK

// CurrencyForRegion maps a region to its catalog currency. Unknown regions use GBP.
func CurrencyForRegion(region string) string {
	if region == RegionUS {
		return CurrencyUSD
	}
	return CurrencyGBP
}

// CurrencySymbol returns the display symbol for a currency code.
func CurrencySymbol(currency string) string {
	if currency == CurrencyUSD {
		return "$"
	}
	return "£"
}

// NormalizeCurrency returns USD for "USD" and GBP for anything else.
func NormalizeCurrency(currency string) string {
	if currency == CurrencyUSD {
		return CurrencyUSD
	}
	return CurrencyGBP
}

// Marketplace describes the storefront serving a region.
type Marketplace struct {
	Region    string
	Currency  string
	Host      string // product API host
	AWSRegion string
	SiteURL   string
	// DefaultTag is the affiliate tag used when none is configured.
	DefaultTag string
}

var marketplaces = map[string]Marketplace{
	RegionUK: {
		Region:     RegionUK,
		Currency:   CurrencyGBP,
		Host:       "webservices.amazon.co.uk",
		AWSRegion:  "eu-west-1",
		SiteURL:    "https://www.amazon.co.uk",
		DefaultTag: "shopai-uk-20",
	},
	RegionUS: {
		Region:     RegionUS,
		Currency:   CurrencyUSD,
		Host:       "webservices.amazon.com",
		AWSRegion:  "us-east-1",
		SiteURL:    "https://www.amazon.com",
		DefaultTag: "shopai-us-20",
	},
}

// MarketplaceFor returns the storefront for region, falling back to the default region.
func MarketplaceFor(region string) Marketplace {
	if m, ok := marketplaces[region]; ok {
		return m
	}
	return marketplaces[DefaultRegion]
}

// NormalizeRegion returns region if supported, otherwise DefaultRegion.
func NormalizeRegion(region string) string {
	if _, ok := marketplaces[region]; ok {
		return region
	}
	return DefaultRegion
}
