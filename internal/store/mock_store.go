// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	principals map[string]*Principal // keyed by identifier

	// LookupErr, when set, is returned by GetPrincipalByIdentifier.
	LookupErr error
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		principals: make(map[string]*Principal),
	}
}

// CreatePrincipal stores a new principal. The check and the insert happen under one
// lock, mirroring the UNIQUE constraint of the SQLite store.
func (m *MockStore) CreatePrincipal(ctx context.Context, p *Principal) error {
	if !p.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, p.Role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.principals[p.Identifier]; exists {
		return ErrIdentifierExists
	}

	// Make a copy to avoid external modification
	cp := *p
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}
	m.principals[cp.Identifier] = &cp
	return nil
}

// GetPrincipalByIdentifier retrieves a principal by identifier.
func (m *MockStore) GetPrincipalByIdentifier(ctx context.Context, identifier string) (*Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LookupErr != nil {
		return nil, m.LookupErr
	}

	p, ok := m.principals[identifier]
	if !ok {
		return nil, ErrPrincipalNotFound
	}

	// Return a copy
	result := *p
	return &result, nil
}

// ListPrincipals returns copies of every principal ordered by identifier.
func (m *MockStore) ListPrincipals(ctx context.Context) ([]*Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Principal, 0, len(m.principals))
	for _, p := range m.principals {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Identifier < result[j].Identifier
	})
	return result, nil
}

// UpdatePrincipalRole changes the role of an existing principal.
func (m *MockStore) UpdatePrincipalRole(ctx context.Context, identifier string, role Role) (*Principal, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.principals[identifier]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	p.Role = role
	p.UpdatedAt = time.Now().UTC()

	result := *p
	return &result, nil
}

// CountPrincipals returns the number of stored principals.
func (m *MockStore) CountPrincipals(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.principals), nil
}

// DeletePrincipal removes a principal. Only tests use it, to simulate a principal that
// disappears after its token was issued.
func (m *MockStore) DeletePrincipal(identifier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.principals, identifier)
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}
