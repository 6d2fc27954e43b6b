// ABOUTME: Authentication gate for login and registration with bcrypt secrets
// ABOUTME: Uniform login rejection and store-enforced uniqueness on register

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/campus-gateway/internal/store"
)

// maxSecretBytes is the longest secret bcrypt hashes without truncation.
const maxSecretBytes = 72

// Gate errors
var (
	ErrBadCredentials      = errors.New("invalid credentials")
	ErrIdentifierTaken     = errors.New("identifier already registered")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// dummySecret is hashed once per Authenticator and compared against for unknown identifiers.
const dummySecret = "campus-gateway/no-such-principal"

// CredentialStore is the subset of store.Store the gate needs.
type CredentialStore interface {
	GetPrincipalByIdentifier(ctx context.Context, identifier string) (*store.Principal, error)
	CreatePrincipal(ctx context.Context, p *store.Principal) error
}

// RegisterRequest carries the fields of a registration.
type RegisterRequest struct {
	Identifier string
	Secret     string
	Name       string
	Role       store.Role
}

// GateOption configures an Authenticator.
type GateOption func(*Authenticator)

// WithBcryptCost sets the bcrypt work factor for new hashes.
func WithBcryptCost(cost int) GateOption {
	return func(a *Authenticator) {
		if cost != 0 {
			a.cost = cost
		}
	}
}

// WithGateLogger sets the logger used for login and registration events.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Authenticator implements Login and Register over a credential store and token issuer.
type Authenticator struct {
	store     CredentialStore
	tokens    TokenIssuer
	cost      int
	dummyHash []byte
	logger    *slog.Logger
}

// NewAuthenticator creates an Authenticator.
// Returns an error if the configured bcrypt cost is out of range.
func NewAuthenticator(creds CredentialStore, tokens TokenIssuer, opts ...GateOption) (*Authenticator, error) {
	a := &Authenticator{
		store:  creds,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.cost < bcrypt.MinCost || a.cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", a.cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// Same cost as real hashes so unknown identifiers take as long as wrong secrets.
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummySecret), a.cost)
	if err != nil {
		return nil, fmt.Errorf("generating dummy hash: %w", err)
	}
	a.dummyHash = dummy

	return a, nil
}

// Login checks the secret against the stored hash and returns a fresh token.
// Unknown identifiers and wrong secrets both yield ErrBadCredentials. The identifier is
// trimmed the same way Register trims it.
func (a *Authenticator) Login(ctx context.Context, identifier, secret string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	principal, err := a.store.GetPrincipalByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, store.ErrPrincipalNotFound) {
			return "", fmt.Errorf("looking up principal: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(secret))
		a.logger.Debug("login rejected", "reason", "unknown identifier")
		return "", ErrBadCredentials
	}

	if len(secret) > maxSecretBytes {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(secret[:maxSecretBytes]))
		a.logger.Debug("login rejected", "reason", "secret too long", "identifier", identifier)
		return "", ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(secret)); err != nil {
		a.logger.Debug("login rejected", "reason", "secret mismatch", "identifier", identifier)
		return "", ErrBadCredentials
	}

	token, err := a.tokens.Issue(principal)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	a.logger.Info("login succeeded", "identifier", principal.Identifier, "role", principal.Role)
	return token, nil
}

// Register hashes the secret and inserts a new principal. It issues no token.
// Concurrent registrations of one identifier produce one success; the others get
// ErrIdentifierTaken from the store's uniqueness constraint.
func (a *Authenticator) Register(ctx context.Context, req RegisterRequest) (*store.Principal, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrInvalidRegistration)
	}
	if req.Secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidRegistration)
	}
	if len(req.Secret) > maxSecretBytes {
		return nil, fmt.Errorf("%w: secret longer than %d bytes", ErrInvalidRegistration, maxSecretBytes)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistration, store.ErrUnknownRole)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = identifier
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing secret: %w", err)
	}

	now := time.Now().UTC()
	principal := &store.Principal{
		ID:           uuid.New().String(),
		Identifier:   identifier,
		DisplayName:  name,
		PasswordHash: string(hash),
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.store.CreatePrincipal(ctx, principal); err != nil {
		if errors.Is(err, store.ErrIdentifierExists) {
			return nil, ErrIdentifierTaken
		}
		return nil, fmt.Errorf("creating principal: %w", err)
	}

	a.logger.Info("principal registered", "identifier", principal.Identifier, "role", principal.Role)
	return principal, nil
}
