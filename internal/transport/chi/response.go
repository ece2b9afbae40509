package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/zokey/internal/domain"
)

// Error codes returned in the error envelope.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeNoProducts        = "NO_PRODUCTS"
	CodeLimitReached      = "LIMIT_REACHED"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeInvalidReceipt    = "INVALID_RECEIPT"
	CodeNoPurchases       = "NO_PURCHASES"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeRateLimited       = "RATE_LIMITED"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeRegistrationError = "REGISTRATION_FAILED"
	CodeSearchFailed      = "SEARCH_FAILED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeRestoreFailed     = "RESTORE_FAILED"
	CodeServerError       = "SERVER_ERROR"
)

// errorBody is the error part of the response envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope wraps every API response.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

// decodeBody decodes and validates a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
	return "Invalid request body"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message)
		return true
	}
}

// receiptHandler surfaces the provider's rejection reason.
func receiptHandler(w http.ResponseWriter, err error) bool {
	var re *domain.ReceiptError
	if !errors.As(err, &re) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidReceipt, re.Reason)
	return true
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrUnknownSubcategory, http.StatusNotFound, CodeNotFound, "Subcategory not found"),
		sentinelHandler(domain.ErrNoProductsFound, http.StatusNotFound, CodeNoProducts,
			"No products found matching your criteria"),
		sentinelHandler(domain.ErrSearchLimitReached, http.StatusForbidden, CodeLimitReached,
			"Free search limit reached. Please subscribe to continue."),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound, "User not found"),
		receiptHandler,
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized"),
	}
}
