// Package synthetic serves a fixed, keyword-matched product library used
// whenever the live product provider cannot answer.
package synthetic

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
)

// MinResults is the floor below which filtered results are backfilled.
const MinResults = 3

// MaxResults caps the number of returned products.
const MaxResults = 10

//go:embed data/products.yaml
var productsYAML []byte

type record struct {
	ASIN          string   `yaml:"asin"`
	Title         string   `yaml:"title"`
	Price         float64  `yaml:"price"`
	OriginalPrice *float64 `yaml:"original_price"`
	Rating        float64  `yaml:"rating"`
	ReviewCount   int      `yaml:"review_count"`
	Prime         bool     `yaml:"prime"`
	Availability  string   `yaml:"availability"`
	Features      []string `yaml:"features"`
}

type template struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Products []record `yaml:"products"`
}

// Catalog is the immutable synthetic product library.
type Catalog struct {
	templates []template
	generic   []record
}

// Load parses the embedded product library.
func Load() (*Catalog, error) {
	var doc struct {
		Templates []template `yaml:"templates"`
		Generic   []record   `yaml:"generic"`
	}
	if err := yaml.Unmarshal(productsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse synthetic products: %w", err)
	}
	if len(doc.Generic) < MinResults {
		return nil, fmt.Errorf("synthetic catalog needs at least %d generic products, got %d", MinResults, len(doc.Generic))
	}
	for _, t := range doc.Templates {
		if len(t.Keywords) == 0 || len(t.Products) == 0 {
			return nil, fmt.Errorf("synthetic template %q is empty", t.Name)
		}
	}
	return &Catalog{templates: doc.Templates, generic: doc.Generic}, nil
}

// MustLoad is Load that panics on error. The data is embedded, so failure is a build defect.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Match returns the name of the first template whose keywords overlap the
// query keywords by substring containment in either direction, or "" for the
// generic set.
func (c *Catalog) Match(keywords []string) string {
	t := c.match(keywords)
	if t == nil {
		return ""
	}
	return t.Name
}

func (c *Catalog) match(keywords []string) *template {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			terms = append(terms, k)
		}
	}
	for i := range c.templates {
		for _, kw := range c.templates[i].Keywords {
			for _, term := range terms {
				if strings.Contains(term, kw) || strings.Contains(kw, term) {
					return &c.templates[i]
				}
			}
		}
	}
	return nil
}

// Products returns deterministic products for the keywords, priced in the
// region's currency. Results are filtered by the optional price bounds,
// topped up from the generic set when fewer than MinResults remain, and
// capped at MaxResults.
func (c *Catalog) Products(keywords []string, region string, priceMin, priceMax *float64) []product.Product {
	m := domain.MarketplaceFor(region)

	source := c.generic
	if t := c.match(keywords); t != nil {
		source = t.Products
	}

	out := make([]product.Product, 0, MaxResults)
	seen := make(map[string]struct{}, len(source))
	for _, r := range source {
		if priceMin != nil && r.Price < *priceMin {
			continue
		}
		if priceMax != nil && r.Price > *priceMax {
			continue
		}
		out = append(out, r.toProduct(m))
		seen[r.ASIN] = struct{}{}
	}

	if len(out) < MinResults {
		for _, r := range c.generic {
			if _, dup := seen[r.ASIN]; dup {
				continue
			}
			out = append(out, r.toProduct(m))
			seen[r.ASIN] = struct{}{}
		}
	}

	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func (r record) toProduct(m domain.Marketplace) product.Product {
	availability := r.Availability
	if availability == "" {
		availability = "In Stock"
	}
	features := make([]string, len(r.Features))
	copy(features, r.Features)

	p := product.Product{
		ASIN:         r.ASIN,
		Title:        r.Title,
		Price:        r.Price,
		Currency:     m.Currency,
		ImageURL:     "https://picsum.photos/seed/" + r.ASIN + "/500/500",
		Rating:       r.Rating,
		ReviewCount:  r.ReviewCount,
		AmazonURL:    m.SiteURL + "/dp/" + r.ASIN + "?tag=" + m.DefaultTag,
		IsPrime:      r.Prime,
		Availability: availability,
		Features:     features,
	}
	if r.OriginalPrice != nil {
		op := *r.OriginalPrice
		p.OriginalPrice = &op
	}
	return p
}
