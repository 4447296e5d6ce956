package httpapi

import (
	"context"
	"net/http"
	"strings"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxEmail  contextKey = "email"
	ctxRole   contextKey = "role"
)

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func identityFromToken(tokenService services.TokenService, tokenStr string) (userID, email, role string, ok bool) {
	token, claims, err := tokenService.ParseToken(tokenStr)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		return "", "", "", false
	}
	userID, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	role, _ = claims["role"].(string)
	if userID == "" {
		return "", "", "", false
	}
	return userID, email, role, true
}

func withIdentity(r *http.Request, userID, email, role string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxEmail, email)
	ctx = context.WithValue(ctx, ctxRole, role)
	return r.WithContext(ctx)
}

// WithAuth rejects requests without a valid bearer credential.
func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			userID, email, role, ok := identityFromToken(tokenService, tokenStr)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, withIdentity(r, userID, email, role))
		})
	}
}

// OptionalAuth never fails: it attaches the identity when the credential is
// present and valid, and lets the request through anonymous otherwise.
func OptionalAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := bearerToken(r); tokenStr != "" {
				if userID, email, role, ok := identityFromToken(tokenService, tokenStr); ok {
					r = withIdentity(r, userID, email, role)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin assumes WithAuth already ran and checks the role claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentRole(r) != models.RoleAdmin {
			WriteError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentEmail(r *http.Request) string {
	if value, ok := r.Context().Value(ctxEmail).(string); ok {
		return value
	}
	return ""
}

func CurrentRole(r *http.Request) string {
	if value, ok := r.Context().Value(ctxRole).(string); ok {
		return value
	}
	return ""
}
