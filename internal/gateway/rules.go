// ABOUTME: Built-in authorization table for gateway routes
// ABOUTME: Converts configured extra rules into auth.Rule values appended after the built-ins

package gateway

import (
	"net/http"

	"github.com/2389/campus-gateway/internal/auth"
	"github.com/2389/campus-gateway/internal/config"
	"github.com/2389/campus-gateway/internal/store"
)

// DefaultRules is the built-in table. Routes not listed here or in configuration,
// /auth/me included, require an authenticated caller.
func DefaultRules() []auth.Rule {
	adminOnly := []store.Role{store.RoleAdmin}
	return []auth.Rule{
		{Method: http.MethodPost, Pattern: "/auth/login", Public: true},
		{Method: http.MethodPost, Pattern: "/auth/register", Public: true},
		{Method: http.MethodGet, Pattern: "/health", Public: true},
		{Method: "*", Pattern: "/admin", Roles: adminOnly},
		{Method: "*", Pattern: "/admin/*", Roles: adminOnly},
	}
}

// RulesFromConfig converts configured rules, preserving their order.
func RulesFromConfig(rules []config.RuleConfig) []auth.Rule {
	out := make([]auth.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, auth.Rule{
			Method:  r.Method,
			Pattern: r.Pattern,
			Public:  r.Public,
			Roles:   r.Roles,
		})
	}
	return out
}
