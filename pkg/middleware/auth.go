package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type contextKeyType string

const (
	userIDKey      contextKeyType = "user_id"
	emailKey       contextKeyType = "email"
	rawTokenKey    contextKeyType = "raw_token"
	tokenExpiryKey contextKeyType = "token_expiry"
)

// Claims represents the token claims extracted by the auth middleware.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// TokenValidator validates a bearer token's signature and expiry and returns
// its claims. The gateway injects the service's own validation logic here.
type TokenValidator func(token string) (*Claims, error)

// RevocationChecker reports whether a bearer token has been revoked.
// Any lookup error denies the request: revocation checks fail closed.
type RevocationChecker func(ctx context.Context, token string) (bool, error)

// Auth gates protected routes. The check order is fixed: header extraction,
// revocation lookup, then signature/expiry validation. On success the user
// id, email, raw token, and token expiry are attached to the request context;
// logout needs the raw token and its expiry to record the revocation.
func Auth(validate TokenValidator, revoked RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}
			token := parts[1]

			isRevoked, err := revoked(r.Context(), token)
			if err != nil || isRevoked {
				writeAuthError(w, "session ended, please log in again")
				return
			}

			claims, err := validate(token)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			ctx = context.WithValue(ctx, rawTokenKey, token)
			ctx = context.WithValue(ctx, tokenExpiryKey, claims.ExpiresAt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// EmailFromContext extracts the authenticated user's email from the request context.
func EmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}

// TokenFromContext extracts the raw bearer token from the request context.
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(rawTokenKey).(string); ok {
		return token
	}
	return ""
}

// TokenExpiryFromContext extracts the bearer token's expiry from the request context.
func TokenExpiryFromContext(ctx context.Context) time.Time {
	if exp, ok := ctx.Value(tokenExpiryKey).(time.Time); ok {
		return exp
	}
	return time.Time{}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
