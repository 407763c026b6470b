package api

import (
	"net/http"
	"strings"

	"github.com/ChrisPatten/capital-os/pkg/security"
)

// BearerTokenAuth resolves the Authorization: Bearer <token> header
// against the configured token identity table and attaches the
// resulting security.Context to the request before calling next. A
// missing or unrecognized token is rejected here rather than left for
// the tool runtime to discover mid-dispatch.
func BearerTokenAuth(identities map[string]security.TokenIdentity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			WriteUnauthorized(w, "missing bearer token")
			return
		}

		sc, err := security.AuthenticateToken(identities, token)
		if err != nil {
			WriteUnauthorized(w, "unrecognized bearer token")
			return
		}

		r = r.WithContext(security.WithSecurityContext(r.Context(), sc))
		next.ServeHTTP(w, r)
	})
}
