package middleware

import (
	"context"
	"net/http"
	"strings"

	"onmodel/internal/domain"
)

type userContextKey struct{}

var UserKey = userContextKey{}

// UserContext extracts the caller identity from trusted gateway headers and
// stores it on the request context. Authentication itself happens upstream;
// this service only consumes the verified identity.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		user := &domain.User{
			ID:      id,
			Email:   strings.TrimSpace(r.Header.Get("X-User-Email")),
			IsAdmin: strings.EqualFold(r.Header.Get("X-User-Admin"), "true"),
		}
		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated caller, or nil when the request
// carried no identity.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(UserKey).(*domain.User); ok {
		return u
	}
	return nil
}
