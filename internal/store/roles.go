// ABOUTME: Closed role enumeration for principals
// ABOUTME: One canonical wire form per role; unknown values are rejected when parsed

package store

import (
	"errors"
	"fmt"
)

// ErrUnknownRole is returned when a role string is not one of the known roles.
var ErrUnknownRole = errors.New("unknown role")

// Role is the single role held by a principal.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleUser        Role = "USER"
	RoleProfessor   Role = "PROFESSOR"
	RoleCoordenador Role = "COORDENADOR"
)

// ValidRoles lists every role in declaration order.
var ValidRoles = []Role{
	RoleAdmin,
	RoleUser,
	RoleProfessor,
	RoleCoordenador,
}

// ParseRole converts the canonical wire form into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range ValidRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// String returns the canonical wire form.
func (r Role) String() string {
	return string(r)
}

// UnmarshalText rejects unknown roles so they never get past JSON or YAML decoding.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
