package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	auth "github.com/MrEthical07/goTenantAuth"
)

type contextKey int

const ctxKeyTenant contextKey = iota

// FromRequest returns the tenant context attached by Guard or TenantScoped.
func FromRequest(r *http.Request) (*auth.TenantContext, bool) {
	tc, ok := r.Context().Value(ctxKeyTenant).(*auth.TenantContext)
	return tc, ok
}

// Guard rejects requests without a valid bearer access token with 401 and
// attaches the token's identity to the request context otherwise.
func Guard(a *auth.Authority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			tc, err := a.Guard().SessionContext(requestContext(r), token)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, withTenant(r, tc))
		})
	}
}

// TenantScoped enforces the tenant boundary for a route group. The resource
// tenant is taken per request, typically from the path or host; a mismatch is
// 403, an invalid token 401.
func TenantScoped(a *auth.Authority, resourceTenant func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			tc, err := a.Guard().Authorize(requestContext(r), token, resourceTenant(r))
			switch {
			case errors.Is(err, auth.ErrCrossTenantAccess) || errors.Is(err, auth.ErrMissingTenantClaim):
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			case err != nil:
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, withTenant(r, tc))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

func requestContext(r *http.Request) context.Context {
	ctx := auth.WithClientIP(r.Context(), clientIP(r))
	return auth.WithUserAgent(ctx, r.UserAgent())
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

func withTenant(r *http.Request, tc *auth.TenantContext) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKeyTenant, tc))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
