package chi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/auth"
	"github.com/kailas-cloud/zokey/internal/logger"
)

// TokenValidator verifies session tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// SessionAuthMiddleware requires a valid Bearer session token and stores its
// claims in the request context.
func SessionAuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token := ""
			if strings.HasPrefix(header, bearerPrefix) {
				token = strings.TrimSpace(header[len(bearerPrefix):])
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "No token provided")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token")
				return
			}

			setUserID(r.Context(), claims.UserID)
			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = logger.With(ctx, zap.String("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
