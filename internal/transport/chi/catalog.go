package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/catalog"
	"github.com/kailas-cloud/zokey/internal/domain/legal"
	accountuc "github.com/kailas-cloud/zokey/internal/usecase/account"
)

type questionsResponse struct {
	SubcategoryID   string             `json:"subcategoryId"`
	SubcategoryName string             `json:"subcategoryName"`
	CategoryName    string             `json:"categoryName"`
	Questions       []catalog.Question `json:"questions"`
}

// ListCategories handles GET /api/categories.
func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	currency, ok := currencyParam(w, r)
	if !ok {
		return
	}
	writeData(w, s.catalog.ForCurrency(currency).Categories())
}

// GetQuestions handles GET /api/categories/{subcategoryId}/questions.
func (s *Server) GetQuestions(w http.ResponseWriter, r *http.Request) {
	var subcategoryID string
	err := runtime.BindStyledParameterWithOptions("simple", "subcategoryId", chi.URLParam(r, "subcategoryId"),
		&subcategoryID, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid subcategoryId parameter")
		return
	}
	currency, ok := currencyParam(w, r)
	if !ok {
		return
	}

	cat, sub, found := s.catalog.ForCurrency(currency).Subcategory(subcategoryID)
	if !found {
		writeError(w, http.StatusNotFound, CodeNotFound, "Subcategory not found")
		return
	}
	questions := sub.QuestionFlow.Questions
	if questions == nil {
		questions = []catalog.Question{}
	}
	writeData(w, questionsResponse{
		SubcategoryID:   subcategoryID,
		SubcategoryName: sub.Name,
		CategoryName:    cat.Name,
		Questions:       questions,
	})
}

// ListPlans handles GET /api/subscriptions/plans.
func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	currency, ok := currencyParam(w, r)
	if !ok {
		return
	}
	writeData(w, accountuc.Plans(currency))
}

// Privacy handles GET /api/legal/privacy.
func (s *Server) Privacy(w http.ResponseWriter, _ *http.Request) {
	writeData(w, legal.Privacy())
}

// Terms handles GET /api/legal/terms.
func (s *Server) Terms(w http.ResponseWriter, _ *http.Request) {
	writeData(w, legal.Terms())
}

// currencyParam binds the optional currency query parameter. Anything other than USD is GBP.
func currencyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var currency *string
	if err := runtime.BindQueryParameter("form", true, false, "currency", r.URL.Query(), &currency); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid currency parameter")
		return "", false
	}
	if currency == nil {
		return domain.CurrencyGBP, true
	}
	return domain.NormalizeCurrency(*currency), true
}
