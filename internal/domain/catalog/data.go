package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/zokey/internal/domain"
)

//go:embed data/categories.yaml
var categoriesYAML []byte

// Question ids with special meaning in the question flow.
const (
	QuestionBrand      = "brand"
	QuestionBudget     = "budget"
	QuestionPriorities = "priorities"
)

type rawQuestion struct {
	ID       string       `yaml:"id"`
	Text     string       `yaml:"text"`
	Type     QuestionType `yaml:"type"`
	Required bool         `yaml:"required"`
	Options  []Option     `yaml:"options"`
}

type rawSubcategory struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Icon      string        `yaml:"icon"`
	BudgetMax float64       `yaml:"budget_max"`
	Questions []rawQuestion `yaml:"questions"`
}

type rawCategory struct {
	ID            string           `yaml:"id"`
	Name          string           `yaml:"name"`
	Icon          string           `yaml:"icon"`
	Description   string           `yaml:"description"`
	Subcategories []rawSubcategory `yaml:"subcategories"`
}

func parseEmbedded() ([]rawCategory, error) {
	var doc struct {
		Categories []rawCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(categoriesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse category data: %w", err)
	}

	seen := make(map[string]struct{})
	for _, c := range doc.Categories {
		for _, s := range c.Subcategories {
			if _, dup := seen[s.ID]; dup {
				return nil, fmt.Errorf("duplicate subcategory id %q", s.ID)
			}
			seen[s.ID] = struct{}{}
			if s.BudgetMax <= 0 {
				return nil, fmt.Errorf("subcategory %q: budget_max must be positive", s.ID)
			}
		}
	}
	return doc.Categories, nil
}

func render(raw []rawCategory, currency string) []Category {
	out := make([]Category, len(raw))
	for i, rc := range raw {
		subs := make([]Subcategory, len(rc.Subcategories))
		for j, rs := range rc.Subcategories {
			questions := make([]Question, len(rs.Questions))
			for k, rq := range rs.Questions {
				questions[k] = renderQuestion(rq, currency, rs.BudgetMax)
			}
			subs[j] = Subcategory{
				ID:           rs.ID,
				Name:         rs.Name,
				Icon:         rs.Icon,
				CategoryID:   rc.ID,
				QuestionFlow: QuestionFlow{Questions: questions},
			}
		}
		out[i] = Category{
			ID:            rc.ID,
			Name:          rc.Name,
			Icon:          rc.Icon,
			Description:   rc.Description,
			Subcategories: subs,
		}
	}
	return out
}

func renderQuestion(rq rawQuestion, currency string, budgetMax float64) Question {
	switch {
	case rq.ID == QuestionBudget && rq.Text == "":
		return budgetQuestion(currency, budgetMax)
	case rq.ID == QuestionPriorities && rq.Text == "":
		return prioritiesQuestion(rq.Options)
	}
	return Question{
		ID:       rq.ID,
		Text:     rq.Text,
		Type:     rq.Type,
		Required: rq.Required,
		Options:  rq.Options,
	}
}

func budgetQuestion(currency string, maxBudget float64) Question {
	sym := domain.CurrencySymbol(currency)
	return Question{
		ID:       QuestionBudget,
		Text:     "What's your budget range?",
		Type:     Range,
		Required: true,
		RangeConfig: &RangeConfig{
			Min:      0,
			Max:      maxBudget,
			Step:     50,
			Currency: currency,
			Presets: []RangePreset{
				{Label: "Under " + sym + "100", Min: 0, Max: 100},
				{Label: sym + "100 - " + sym + "300", Min: 100, Max: 300},
				{Label: sym + "300 - " + sym + "500", Min: 300, Max: 500},
				{Label: sym + "500 - " + sym + "1000", Min: 500, Max: 1000},
				{Label: "Over " + sym + "1000", Min: 1000, Max: maxBudget},
			},
		},
	}
}

func prioritiesQuestion(opts []Option) Question {
	options := make([]Option, len(opts))
	for i, o := range opts {
		options[i] = Option{ID: o.ID, Label: o.Label, Value: o.ID, Icon: o.Icon}
	}
	return Question{
		ID:       QuestionPriorities,
		Text:     "What matters most to you? (Select up to 3)",
		Type:     MultiSelect,
		Required: true,
		Options:  options,
	}
}
