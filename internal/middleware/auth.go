// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iyunix/go-converse/internal/auth"
	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/services/user_services"
)

// Provisioner maps a verified identity to a local user, creating it on first sight.
type Provisioner interface {
	Provision(ctx context.Context, identity user_services.Identity) (*domain.User, error)
}

// NewAuthMiddleware verifies the identity token from the Authorization header
// or the session cookie and puts the local user into the request context.
func NewAuthMiddleware(verifier *auth.Verifier, users Provisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("[AuthMiddleware] invalid token")
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or expired session.")
				return
			}

			user, err := users.Provision(r.Context(), user_services.Identity{
				Subject:   claims.Subject,
				Email:     claims.Email,
				FirstName: claims.FirstName,
				LastName:  claims.LastName,
			})
			if err != nil {
				log.Error().Err(err).Msg("[AuthMiddleware] could not resolve user")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "An internal error occurred.")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
