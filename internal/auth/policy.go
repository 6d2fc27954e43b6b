// ABOUTME: Route authorization policy compiled into a casbin priority model
// ABOUTME: First matching rule decides; unlisted routes require authentication

package auth

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/2389/campus-gateway/internal/store"
)

//go:embed policy_model.conf
var policyModelContent string

// Casbin subjects above the concrete roles. Every role inherits authenticatedSubject,
// which inherits anonymousSubject, so a rule for anonymousSubject matches every caller.
const (
	anonymousSubject     = "anonymous"
	authenticatedSubject = "authenticated"
)

// anyMethod matches every HTTP method.
const anyMethod = "*"

// fallbackPriority orders the default rule after every table rule.
const fallbackPriority = 1_000_000

// ErrInvalidRule is returned by NewPolicy for a malformed rule.
var ErrInvalidRule = errors.New("invalid authorization rule")

// Rule maps a route pattern and method to the callers allowed through.
// Pattern uses keyMatch2 syntax: "/admin/*" or "/admin/principals/:identifier/role".
// A rule that is neither Public nor lists Roles requires any authenticated caller.
type Rule struct {
	Method  string
	Pattern string
	Public  bool
	Roles   []store.Role
}

func (r Rule) String() string {
	switch {
	case r.Public:
		return fmt.Sprintf("%s %s public", r.Method, r.Pattern)
	case len(r.Roles) > 0:
		return fmt.Sprintf("%s %s roles=%v", r.Method, r.Pattern, r.Roles)
	default:
		return fmt.Sprintf("%s %s authenticated", r.Method, r.Pattern)
	}
}

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionUnauthenticated
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// StatusCode maps the decision to its HTTP status; allow maps to 200.
func (d Decision) StatusCode() int {
	switch d {
	case DecisionUnauthenticated:
		return http.StatusUnauthorized
	case DecisionForbidden:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

// Policy evaluates requests against an ordered rule table.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
	rules    []Rule
}

// NewPolicy validates rules and compiles them into an enforcer.
// Rules are evaluated in slice order; the first whose pattern and method match decides.
func NewPolicy(rules []Rule) (*Policy, error) {
	m, err := model.NewModelFromString(policyModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if _, err := enforcer.AddGroupingPolicy(authenticatedSubject, anonymousSubject); err != nil {
		return nil, fmt.Errorf("add grouping policy: %w", err)
	}
	for _, role := range store.ValidRoles {
		if _, err := enforcer.AddGroupingPolicy(string(role), authenticatedSubject); err != nil {
			return nil, fmt.Errorf("add grouping policy for %s: %w", role, err)
		}
	}

	normalized := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		rule, err := normalizeRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		normalized = append(normalized, rule)

		// Priorities are unique per rule and ascending, so table order is evaluation order.
		if err := addRulePolicies(enforcer, (i+1)*10, rule); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule, err)
		}
	}

	if _, err := enforcer.AddPolicy(strconv.Itoa(fallbackPriority), authenticatedSubject, "/*", anyMethod, "allow"); err != nil {
		return nil, fmt.Errorf("add default policy: %w", err)
	}

	return &Policy{enforcer: enforcer, rules: normalized}, nil
}

func normalizeRule(rule Rule) (Rule, error) {
	rule.Method = strings.ToUpper(strings.TrimSpace(rule.Method))
	if rule.Method == "" {
		rule.Method = anyMethod
	}
	rule.Pattern = strings.TrimSpace(rule.Pattern)
	if !strings.HasPrefix(rule.Pattern, "/") {
		return Rule{}, fmt.Errorf("%w: pattern %q must start with /", ErrInvalidRule, rule.Pattern)
	}
	if rule.Public && len(rule.Roles) > 0 {
		return Rule{}, fmt.Errorf("%w: %s %s is public and lists roles", ErrInvalidRule, rule.Method, rule.Pattern)
	}
	for _, role := range rule.Roles {
		if !role.Valid() {
			return Rule{}, fmt.Errorf("%w: %w: %q", ErrInvalidRule, store.ErrUnknownRole, role)
		}
	}
	rule.Roles = append([]store.Role(nil), rule.Roles...)
	return rule, nil
}

// addRulePolicies writes the casbin policies for one rule. Non-public rules end with a
// deny for every caller so a later rule for the same route never overrides them.
func addRulePolicies(e *casbin.SyncedEnforcer, priority int, rule Rule) error {
	allowAt := strconv.Itoa(priority)
	denyAt := strconv.Itoa(priority + 5)

	switch {
	case rule.Public:
		_, err := e.AddPolicy(allowAt, anonymousSubject, rule.Pattern, rule.Method, "allow")
		return err
	case len(rule.Roles) > 0:
		for _, role := range rule.Roles {
			if _, err := e.AddPolicy(allowAt, string(role), rule.Pattern, rule.Method, "allow"); err != nil {
				return err
			}
		}
	default:
		if _, err := e.AddPolicy(allowAt, authenticatedSubject, rule.Pattern, rule.Method, "allow"); err != nil {
			return err
		}
	}
	_, err := e.AddPolicy(denyAt, anonymousSubject, rule.Pattern, rule.Method, "deny")
	return err
}

// Rules returns a copy of the normalized rule table.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Decide evaluates a request. A nil AuthContext is an anonymous caller.
// Denials are unauthenticated for anonymous callers and forbidden otherwise.
func (p *Policy) Decide(ac *AuthContext, method, urlPath string) Decision {
	subject := anonymousSubject
	if ac != nil {
		subject = string(ac.Role)
	}

	allowed, err := p.enforcer.Enforce(subject, cleanPath(urlPath), strings.ToUpper(method))
	if err == nil && allowed {
		return DecisionAllow
	}
	if ac == nil {
		return DecisionUnauthenticated
	}
	return DecisionForbidden
}

// Middleware rejects requests the policy does not allow with a bare 401 or 403.
// It must run after Interceptor.
func (p *Policy) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := FromContext(r.Context())
			decision := p.Decide(authCtx, r.Method, r.URL.Path)
			if decision == DecisionAllow {
				next.ServeHTTP(w, r)
				return
			}

			attrs := []any{"decision", decision.String(), "method", r.Method, "path", r.URL.Path}
			if authCtx != nil {
				attrs = append(attrs, "identifier", authCtx.Identifier, "role", authCtx.Role)
			}
			logger.Debug("request denied", attrs...)

			if decision == DecisionUnauthenticated {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			w.WriteHeader(decision.StatusCode())
		})
	}
}

// cleanPath matches what the router sees after path cleaning.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}
