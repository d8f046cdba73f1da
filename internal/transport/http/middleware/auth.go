package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-member-api/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves a bearer header into an Identity.
type Authenticator interface {
	ResolveBearer(header string) (string, bool)
	Authenticate(token string) (domain.Identity, error)
}

// Auth returns middleware that validates the Bearer access token and injects
// the caller's Identity into the request context.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := authn.ResolveBearer(r.Header.Get("Authorization"))
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
				return
			}
			id, err := authn.Authenticate(tok)
			if err != nil {
				var de *domain.Error
				if errors.As(err, &de) {
					writeJSONError(w, http.StatusForbidden, de.Code, de.Message)
					return
				}
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated Identity from the request context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
