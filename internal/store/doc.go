// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The Store interface is the credential store consumed by the auth core:
// lookup by identifier, atomic insert-if-absent, listing and the administrative
// role update. SQLiteStore implements it on modernc.org/sqlite (no cgo);
// MockStore implements it in memory for tests.
//
// # Data Models
//
//   - Principal: identity (unique identifier, display name, bcrypt hash, role)
//   - Role: closed set ADMIN, USER, PROFESSOR, COORDENADOR
//
// # Uniqueness
//
// The principals table carries UNIQUE(identifier). Two concurrent inserts with the
// same identifier result in one row and one ErrIdentifierExists; there is no
// application-level check-then-insert.
//
// # SQLite Configuration
//
// Pragmas are passed in the DSN so every pooled connection gets them:
//
//	_pragma=busy_timeout(5000)
//	_pragma=foreign_keys(1)
//
// File databases additionally switch to WAL. ":memory:" is pinned to a single
// connection because each connection would otherwise see its own database.
//
// # Error Handling
//
//   - ErrPrincipalNotFound: no principal has the identifier
//   - ErrIdentifierExists: identifier already taken
//   - ErrUnknownRole: role string outside the closed set
package store
