package paapi

import (
	"strings"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
)

const (
	unknownTitle        = "Unknown Product"
	unknownAvailability = "Check Amazon"
	noResultsCode       = "NoResults"
)

type searchPayload struct {
	Keywords    string   `json:"Keywords"`
	SearchIndex string   `json:"SearchIndex"`
	ItemCount   int      `json:"ItemCount"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	MinPrice    *int64   `json:"MinPrice,omitempty"`
	MaxPrice    *int64   `json:"MaxPrice,omitempty"`
	Brand       string   `json:"Brand,omitempty"`
	SortBy      string   `json:"SortBy,omitempty"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type searchResponse struct {
	SearchResult *struct {
		Items []item `json:"Items"`
	} `json:"SearchResult"`
	Errors []apiError `json:"Errors"`
}

type amount struct {
	Amount float64 `json:"Amount"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		Features struct {
			DisplayValues []string `json:"DisplayValues"`
		} `json:"Features"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings []struct {
			Price        *amount `json:"Price"`
			SavingBasis  *amount `json:"SavingBasis"`
			DeliveryInfo struct {
				IsPrimeEligible bool `json:"IsPrimeEligible"`
			} `json:"DeliveryInfo"`
			Availability struct {
				Message string `json:"Message"`
			} `json:"Availability"`
		} `json:"Listings"`
	} `json:"Offers"`
	CustomerReviews struct {
		StarRating struct {
			Value float64 `json:"Value"`
		} `json:"StarRating"`
		Count struct {
			Value int `json:"Value"`
		} `json:"Count"`
	} `json:"CustomerReviews"`
}

func (r searchResponse) noResults() bool {
	for _, e := range r.Errors {
		if e.Code == noResultsCode {
			return true
		}
	}
	return false
}

func (r searchResponse) products(m domain.Marketplace) []product.Product {
	if r.SearchResult == nil {
		return []product.Product{}
	}
	out := make([]product.Product, 0, len(r.SearchResult.Items))
	for _, it := range r.SearchResult.Items {
		if it.ASIN == "" {
			continue
		}
		out = append(out, it.toProduct(m))
	}
	return out
}

func (it item) toProduct(m domain.Marketplace) product.Product {
	p := product.Product{
		ASIN:         it.ASIN,
		Title:        strings.TrimSpace(it.ItemInfo.Title.DisplayValue),
		Currency:     m.Currency,
		ImageURL:     it.Images.Primary.Large.URL,
		Rating:       it.CustomerReviews.StarRating.Value,
		ReviewCount:  it.CustomerReviews.Count.Value,
		AmazonURL:    it.DetailPageURL,
		Availability: unknownAvailability,
		Features:     it.ItemInfo.Features.DisplayValues,
	}
	if p.Title == "" {
		p.Title = unknownTitle
	}
	if p.AmazonURL == "" {
		p.AmazonURL = m.SiteURL + "/dp/" + it.ASIN
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if len(it.Offers.Listings) > 0 {
		l := it.Offers.Listings[0]
		if l.Price != nil {
			p.Price = l.Price.Amount
		}
		if l.SavingBasis != nil {
			orig := l.SavingBasis.Amount
			p.OriginalPrice = &orig
		}
		p.IsPrime = l.DeliveryInfo.IsPrimeEligible
		if l.Availability.Message != "" {
			p.Availability = l.Availability.Message
		}
	}
	return p
}
