package chi

import (
	"net/http"

	"github.com/kailas-cloud/zokey/internal/auth"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	accountuc "github.com/kailas-cloud/zokey/internal/usecase/account"
	searchuc "github.com/kailas-cloud/zokey/internal/usecase/search"
)

type searchRequest struct {
	SubcategoryID string         `json:"subcategoryId" validate:"required"`
	Answers       []query.Answer `json:"answers" validate:"required"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()
	claims := auth.ClaimsFromContext(ctx)

	u, err := s.accounts.Authorize(ctx, claims.UserID)
	if err != nil {
		s.handleDomainError(w, r, err, CodeSearchFailed, "Failed to search products")
		return
	}

	out, err := s.search.Search(ctx, searchuc.Request{
		SubcategoryID: req.SubcategoryID,
		Answers:       req.Answers,
		Region:        claims.Region,
	})
	if err != nil {
		s.handleDomainError(w, r, err, CodeSearchFailed, "Failed to search products")
		return
	}

	searchID := s.accounts.Complete(ctx, u, accountuc.Completion{
		CategoryID:    out.CategoryID,
		SubcategoryID: out.SubcategoryID,
		QueryHash:     out.Hash,
		Region:        out.Region,
		Query:         out.Query,
		ResultsCount:  len(out.Result.Ranking.Products),
	})
	writeData(w, out.Recommendation(searchID, s.now()))
}

var _ SearchService = (*searchuc.Service)(nil)
