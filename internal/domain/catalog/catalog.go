// Package catalog holds the read-only category tree and question flows.
package catalog

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/zokey/internal/domain"
)

// QuestionType is the input widget a question renders as.
type QuestionType string

// Question types.
const (
	SingleSelect QuestionType = "single_select"
	MultiSelect  QuestionType = "multi_select"
	Range        QuestionType = "range"
	BrandSelect  QuestionType = "brand_select"
	TextInput    QuestionType = "text_input"
)

// Option is one selectable answer.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	Icon  string `json:"icon,omitempty" yaml:"icon"`
}

// RangePreset is a named shortcut within a range question.
type RangePreset struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// RangeConfig configures a numeric range question.
type RangeConfig struct {
	Min      float64       `json:"min"`
	Max      float64       `json:"max"`
	Step     float64       `json:"step"`
	Currency string        `json:"currency"`
	Presets  []RangePreset `json:"presets"`
}

// Question is one step of a subcategory's question flow.
type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Required       bool         `json:"required"`
	Options        []Option     `json:"options,omitempty"`
	RangeConfig    *RangeConfig `json:"rangeConfig,omitempty"`
	DynamicOptions bool         `json:"dynamicOptions,omitempty"`
	Placeholder    string       `json:"placeholder,omitempty"`
}

// QuestionFlow is the ordered list of questions for a subcategory.
type QuestionFlow struct {
	Questions []Question `json:"questions"`
}

// Subcategory is a leaf of the category tree.
type Subcategory struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Icon         string       `json:"icon"`
	CategoryID   string       `json:"categoryId"`
	QuestionFlow QuestionFlow `json:"questionFlow"`
}

// Category groups subcategories.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Icon          string        `json:"icon"`
	Description   string        `json:"description"`
	Subcategories []Subcategory `json:"subcategories"`
}

type location struct {
	category    int
	subcategory int
}

// Catalog is the category tree rendered for one currency. It is immutable;
// callers must not modify returned slices.
type Catalog struct {
	currency   string
	categories []Category
	index      map[string]location
}

func newCatalog(currency string, categories []Category) *Catalog {
	idx := make(map[string]location)
	for ci, c := range categories {
		for si, s := range c.Subcategories {
			idx[s.ID] = location{category: ci, subcategory: si}
		}
	}
	return &Catalog{currency: currency, categories: categories, index: idx}
}

// Currency returns the currency budget questions are expressed in.
func (c *Catalog) Currency() string { return c.currency }

// Categories returns the full tree.
func (c *Catalog) Categories() []Category { return c.categories }

// Subcategory resolves a subcategory id together with its owning category.
func (c *Catalog) Subcategory(id string) (Category, Subcategory, bool) {
	loc, ok := c.index[id]
	if !ok {
		return Category{}, Subcategory{}, false
	}
	cat := c.categories[loc.category]
	return cat, cat.Subcategories[loc.subcategory], true
}

// Source renders the catalog per currency. At most one Catalog is built per
// supported currency; later calls return the memoized value.
type Source struct {
	raw []rawCategory

	mu         sync.Mutex
	byCurrency map[string]*Catalog
}

// NewSource parses the embedded category data.
func NewSource() (*Source, error) {
	raw, err := parseEmbedded()
	if err != nil {
		return nil, err
	}
	return &Source{raw: raw, byCurrency: make(map[string]*Catalog, 2)}, nil
}

// MustSource is NewSource that panics on malformed embedded data.
func MustSource() *Source {
	s, err := NewSource()
	if err != nil {
		panic(err)
	}
	return s
}

// ForCurrency returns the catalog for a currency code. Anything other than
// USD renders as GBP.
func (s *Source) ForCurrency(currency string) *Catalog {
	currency = domain.NormalizeCurrency(currency)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.byCurrency[currency]; ok {
		return c
	}
	c := newCatalog(currency, render(s.raw, currency))
	s.byCurrency[currency] = c
	return c
}

// ForRegion returns the catalog for a region's currency.
func (s *Source) ForRegion(region string) *Catalog {
	return s.ForCurrency(domain.CurrencyForRegion(region))
}

// Lookup resolves a subcategory in the region's catalog.
func (s *Source) Lookup(subcategoryID, region string) (Category, Subcategory, error) {
	cat, sub, ok := s.ForRegion(region).Subcategory(subcategoryID)
	if !ok {
		return Category{}, Subcategory{}, fmt.Errorf("%w: %s", domain.ErrUnknownSubcategory, subcategoryID)
	}
	return cat, sub, nil
}
