// Package middleware adapts the engine to net/http. Guard
// authenticates requests and RequirePermission enforces a single
// permission; both leave handler code free of token plumbing.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	authservice "github.com/Vadimvill/auth-service"
)

// accessTokenCookie is the fallback credential carrier for browser
// clients that cannot set an Authorization header.
const accessTokenCookie = "access_token"

// Guard returns middleware that authenticates every request except
// the listed public paths. On success the verified claims are
// attached to the request context; on failure the request is rejected
// with 401 before the handler runs.
func Guard(engine *authservice.Engine, publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if engine == nil {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			raw, ok := accessToken(r)
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			claims, err := engine.Validate(r.Context(), raw)
			if err != nil {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(authservice.WithClaims(r.Context(), claims)))
		})
	}
}

// RequirePermission returns middleware rejecting requests whose
// claims lack the named permission. It must run after Guard.
func RequirePermission(engine *authservice.Engine, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := authservice.ClaimsFromContext(r.Context())

			err := engine.Require(r.Context(), claims, name)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, authservice.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
			}
		})
	}
}

// accessToken extracts the credential from the Authorization header,
// falling back to the access_token cookie.
func accessToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := value[len(bearer):]
	return token, token != ""
}
