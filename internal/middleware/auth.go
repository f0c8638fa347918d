package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayush/notes-api/internal/models"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id stored by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// RequireAuth is middleware that validates the Authorization bearer token and
// injects the user id into the request context.
//
// A missing header is 401. Anything else that fails (wrong scheme, no token
// segment, bad signature, expired) is 403.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				models.RespondWithError(w, models.NewUnauthenticatedError("Unauthorized"))
				return
			}

			userID, err := tokens.Verify(bearerToken(header))
			if err != nil {
				models.RespondWithError(w, models.NewForbiddenError("Invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken extracts the second space-delimited segment of a
// "Bearer <token>" header; it returns "" when there is none. A present header
// without a usable token therefore fails verification with 403, not 401.
func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) < 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
