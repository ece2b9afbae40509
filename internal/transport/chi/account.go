package chi

import (
	"errors"
	"net/http"
	"time"

	"github.com/kailas-cloud/zokey/internal/auth"
	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/user"
	accountuc "github.com/kailas-cloud/zokey/internal/usecase/account"
)

type registerRequest struct {
	DeviceID string `json:"deviceId" validate:"required,max=256"`
	Region   string `json:"region" validate:"omitempty,max=8"`
	Currency string `json:"currency" validate:"omitempty,max=8"`
}

type receiptRequest struct {
	ReceiptData string `json:"receiptData" validate:"required"`
}

type registeredUser struct {
	ID                    string                  `json:"id"`
	FreeSearchesRemaining int                     `json:"freeSearchesRemaining"`
	SubscriptionStatus    user.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time              `json:"subscriptionExpiresAt"`
}

type registerResponse struct {
	Token string         `json:"token"`
	User  registeredUser `json:"user"`
}

type statusResponse struct {
	UserID                string                  `json:"userId"`
	FreeSearchesRemaining int                     `json:"freeSearchesRemaining"`
	SubscriptionStatus    user.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time              `json:"subscriptionExpiresAt"`
	CanSearch             bool                    `json:"canSearch"`
}

type subscriptionResponse struct {
	SubscriptionStatus user.SubscriptionStatus `json:"subscriptionStatus"`
	ExpiresAt          *time.Time              `json:"expiresAt"`
	ProductID          string                  `json:"productId,omitempty"`
	Message            string                  `json:"message,omitempty"`
}

// Register handles POST /api/auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reg, err := s.accounts.Register(r.Context(), req.DeviceID, req.Region, req.Currency)
	if err != nil {
		s.handleDomainError(w, r, err, CodeRegistrationError, "Failed to register device")
		return
	}
	setUserID(r.Context(), reg.User.ID)
	writeData(w, registerResponse{
		Token: reg.Token,
		User: registeredUser{
			ID:                    reg.User.ID,
			FreeSearchesRemaining: reg.User.RemainingSearches(),
			SubscriptionStatus:    reg.User.SubscriptionStatus,
			SubscriptionExpiresAt: reg.User.SubscriptionExpiresAt,
		},
	})
}

// Status handles GET /api/auth/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Status(r.Context(), auth.ClaimsFromContext(r.Context()).UserID)
	if err != nil {
		s.handleDomainError(w, r, err, CodeServerError, "Failed to get status")
		return
	}
	writeData(w, toStatus(u))
}

// ResetSearches handles POST /api/auth/reset-searches.
func (s *Server) ResetSearches(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.ResetSearches(r.Context(), auth.ClaimsFromContext(r.Context()).UserID)
	if err != nil {
		s.handleDomainError(w, r, err, CodeServerError, "Failed to reset searches")
		return
	}
	writeData(w, toStatus(u))
}

// ValidateSubscription handles POST /api/subscriptions/validate.
func (s *Server) ValidateSubscription(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sub, err := s.accounts.ValidateSubscription(r.Context(), auth.ClaimsFromContext(r.Context()).UserID, req.ReceiptData)
	if err != nil {
		s.handleDomainError(w, r, err, CodeValidationFailed, "Failed to validate receipt")
		return
	}
	writeData(w, subscriptionResponse{
		SubscriptionStatus: sub.Status,
		ExpiresAt:          sub.ExpiresAt,
		ProductID:          sub.ProductID,
	})
}

// RestoreSubscription handles POST /api/subscriptions/restore.
func (s *Server) RestoreSubscription(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sub, err := s.accounts.RestoreSubscription(r.Context(), auth.ClaimsFromContext(r.Context()).UserID, req.ReceiptData)
	if errors.Is(err, domain.ErrInvalidReceipt) {
		writeError(w, http.StatusBadRequest, CodeNoPurchases, "No previous purchases found to restore")
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err, CodeRestoreFailed, "Failed to restore purchases")
		return
	}
	writeData(w, subscriptionResponse{
		SubscriptionStatus: sub.Status,
		ExpiresAt:          sub.ExpiresAt,
		Message:            "Purchases restored successfully",
	})
}

func toStatus(u user.User) statusResponse {
	return statusResponse{
		UserID:                u.ID,
		FreeSearchesRemaining: u.RemainingSearches(),
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		CanSearch:             u.CanSearch(),
	}
}

var _ AccountService = (*accountuc.Service)(nil)
