package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware authenticates requests and attaches the user context
type Middleware struct {
	issuer *TokenIssuer
	logger *zap.Logger
}

// NewMiddleware creates the authentication middleware
func NewMiddleware(issuer *TokenIssuer, logger *zap.Logger) *Middleware {
	return &Middleware{issuer: issuer, logger: logger}
}

// RequireAuth validates the bearer token and populates the request context.
// Requests without a valid token are rejected with 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, `{"type":"unauthorized","title":"Unauthorized","status":401,"detail":"missing or invalid Authorization header"}`)
			return
		}

		user, err := m.issuer.Validate(tokenString)
		if err != nil {
			m.logger.Debug("token validation failed", zap.Error(err))
			writeJSONError(w, http.StatusUnauthorized, `{"type":"unauthorized","title":"Unauthorized","status":401,"detail":"invalid or expired token"}`)
			return
		}

		ctx := WithUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrivileged rejects requests from users without the manager capability
func (m *Middleware) RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := FromContext(r.Context())
		if !ok || !user.IsPrivileged() {
			writeJSONError(w, http.StatusForbidden, `{"type":"forbidden","title":"Forbidden","status":403,"detail":"manager role required"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
