package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"task-tracker/logging"
	"task-tracker/models"
)

// Verifier resolves a bearer credential to an identity. It reports false for
// anything it cannot vouch for.
type Verifier interface {
	Verify(ctx context.Context, credential string) (models.Identity, bool)
}

type contextKey struct{}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(models.Identity)
	return identity, ok
}

// JWTAuthMiddleware lets a request through only when its Authorization header
// carries a bearer token the verifier accepts. The identity is stored in the
// request context.
func JWTAuthMiddleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				unauthorized(w)
				return
			}

			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			tokenStr = strings.TrimSpace(tokenStr)
			if !found || tokenStr == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Malformed Authorization header for request to %s %s", r.Method, r.URL.Path)
				unauthorized(w)
				return
			}

			identity, ok := verifier.Verify(r.Context(), tokenStr)
			if !ok {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s", r.Method, r.URL.Path)
				unauthorized(w)
				return
			}

			logging.Logger.Debugf("Event ID: JWT_AUTH_SUCCESS, Description: %s (%s) authenticated for %s %s", identity.Username, identity.Role, r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"}); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

// EnableCORS answers preflight requests and adds CORS headers for origin.
func EnableCORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
