// ABOUTME: Store interface and data types for campus-gateway persistence
// ABOUTME: Defines the Principal record and the credential store contract

package store

import (
	"context"
	"errors"
	"time"
)

// ErrPrincipalNotFound is returned when no principal has the requested identifier.
var ErrPrincipalNotFound = errors.New("principal not found")

// ErrIdentifierExists is returned when inserting a principal whose identifier is taken.
var ErrIdentifierExists = errors.New("identifier already exists")

// Principal is an actor that can authenticate against the gateway.
type Principal struct {
	ID           string
	Identifier   string // unique, used as the token subject (usually an email)
	DisplayName  string
	PasswordHash string // bcrypt hash; never serialized or logged
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is the credential store consumed by the auth core and the admin API.
type Store interface {
	// CreatePrincipal inserts p atomically; a taken identifier yields ErrIdentifierExists.
	CreatePrincipal(ctx context.Context, p *Principal) error
	GetPrincipalByIdentifier(ctx context.Context, identifier string) (*Principal, error)
	ListPrincipals(ctx context.Context) ([]*Principal, error)
	UpdatePrincipalRole(ctx context.Context, identifier string, role Role) (*Principal, error)
	CountPrincipals(ctx context.Context) (int, error)

	// Close releases any resources held by the store
	Close() error
}
