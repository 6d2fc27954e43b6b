// ABOUTME: HTTP request interceptor that resolves bearer tokens to principals
// ABOUTME: Never rejects; attaches an AuthContext only when token and principal both resolve

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/campus-gateway/internal/store"
)

// PrincipalLookup resolves a token subject to the current principal record.
type PrincipalLookup interface {
	GetPrincipalByIdentifier(ctx context.Context, identifier string) (*store.Principal, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// logAuthFailure logs an authentication failure with structured context.
// The token itself is never logged.
func logAuthFailure(logger *slog.Logger, r *http.Request, reason string, attrs ...any) {
	if logger == nil {
		return
	}
	baseAttrs := []any{"reason", reason, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr}
	baseAttrs = append(baseAttrs, attrs...)
	logger.Debug("auth failure", baseAttrs...)
}

// Interceptor creates an HTTP middleware that runs once per request before routing.
// A missing, malformed, invalid or expired token, or one whose subject no longer
// resolves, leaves the request anonymous. Access decisions belong to the Policy.
func Interceptor(principals PrincipalLookup, tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r) // Continue as anonymous
				return
			}

			token, errMsg := extractBearerToken(header)
			if errMsg != "" {
				logAuthFailure(logger, r, errMsg)
				next.ServeHTTP(w, r)
				return
			}

			subject, err := tokens.Validate(token)
			if err != nil {
				logAuthFailure(logger, r, "token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			principal, err := principals.GetPrincipalByIdentifier(r.Context(), subject)
			if err != nil {
				logAuthFailure(logger, r, "principal not resolved", "subject", subject, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			authCtx := buildAuthContext(principal)
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}
