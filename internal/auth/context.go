// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating auth info via context

package auth

import (
	"context"

	"github.com/2389/campus-gateway/internal/store"
)

// AuthContext holds the authenticated identity information resolved for a request.
// The Interceptor populates it; handlers and the Policy read it from context.
type AuthContext struct {
	PrincipalID string     // UUID of the authenticated principal
	Identifier  string     // token subject
	DisplayName string     // name at resolution time
	Role        store.Role // role at resolution time, not at token issue
}

// HasRole reports whether the principal holds any of the given roles.
func (a *AuthContext) HasRole(roles ...store.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin returns true if the principal has the ADMIN role.
func (a *AuthContext) IsAdmin() bool {
	return a.HasRole(store.RoleAdmin)
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	val := ctx.Value(authContextKey{})
	if val == nil {
		return nil
	}
	auth, ok := val.(*AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// MustFromContext retrieves the AuthContext from the context, panicking if not present.
func MustFromContext(ctx context.Context) *AuthContext {
	auth := FromContext(ctx)
	if auth == nil {
		panic("auth: AuthContext not found in context")
	}
	return auth
}

// buildAuthContext creates an AuthContext from a resolved principal.
func buildAuthContext(p *store.Principal) *AuthContext {
	return &AuthContext{
		PrincipalID: p.ID,
		Identifier:  p.Identifier,
		DisplayName: p.DisplayName,
		Role:        p.Role,
	}
}
