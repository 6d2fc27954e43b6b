// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Principal persistence with automatic schema creation and a UNIQUE identifier

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// memoryPath opens a private in-memory database.
const memoryPath = ":memory:"

// busyTimeoutMillis is how long a writer waits for a competing transaction.
const busyTimeoutMillis = 5000

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != memoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, busyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == memoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS principals (
			principal_id  TEXT PRIMARY KEY,
			identifier    TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,

			CHECK (role IN ('ADMIN', 'USER', 'PROFESSOR', 'COORDENADOR'))
		);

		CREATE INDEX IF NOT EXISTS idx_principals_role ON principals(role);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isIdentifierConflict reports whether err is the UNIQUE violation on principals.identifier.
// Other constraint failures (primary key, CHECK, NOT NULL) are not identifier conflicts.
func isIdentifierConflict(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: principals.identifier")
}

// CreatePrincipal inserts a new principal. The UNIQUE index on identifier makes the
// existence check and the insert a single atomic step.
func (s *SQLiteStore) CreatePrincipal(ctx context.Context, p *Principal) error {
	if !p.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, p.Role)
	}

	query := `
		INSERT INTO principals (principal_id, identifier, display_name, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Identifier,
		p.DisplayName,
		p.PasswordHash,
		string(p.Role),
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isIdentifierConflict(err) {
			return ErrIdentifierExists
		}
		return fmt.Errorf("inserting principal: %w", err)
	}

	s.logger.Debug("created principal", "id", p.ID, "identifier", p.Identifier, "role", p.Role)
	return nil
}

// GetPrincipalByIdentifier retrieves a principal by its unique identifier.
// Returns ErrPrincipalNotFound if it doesn't exist.
func (s *SQLiteStore) GetPrincipalByIdentifier(ctx context.Context, identifier string) (*Principal, error) {
	query := `
		SELECT principal_id, identifier, display_name, password_hash, role, created_at, updated_at
		FROM principals
		WHERE identifier = ?
	`

	p, err := scanPrincipal(s.db.QueryRowContext(ctx, query, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying principal: %w", err)
	}
	return p, nil
}

// ListPrincipals returns every principal ordered by identifier.
func (s *SQLiteStore) ListPrincipals(ctx context.Context) ([]*Principal, error) {
	query := `
		SELECT principal_id, identifier, display_name, password_hash, role, created_at, updated_at
		FROM principals
		ORDER BY identifier
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing principals: %w", err)
	}
	defer rows.Close()

	var principals []*Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning principal: %w", err)
		}
		principals = append(principals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating principals: %w", err)
	}

	return principals, nil
}

// UpdatePrincipalRole changes the role of an existing principal and returns the
// updated record.
func (s *SQLiteStore) UpdatePrincipalRole(ctx context.Context, identifier string, role Role) (*Principal, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	query := `UPDATE principals SET role = ?, updated_at = ? WHERE identifier = ?`

	result, err := s.db.ExecContext(ctx, query,
		string(role),
		time.Now().UTC().Format(time.RFC3339),
		identifier,
	)
	if err != nil {
		return nil, fmt.Errorf("updating principal role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrPrincipalNotFound
	}

	s.logger.Info("updated principal role", "identifier", identifier, "role", role)
	return s.GetPrincipalByIdentifier(ctx, identifier)
}

// CountPrincipals returns the number of stored principals.
func (s *SQLiteStore) CountPrincipals(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM principals`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting principals: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*Principal, error) {
	var p Principal
	var role, createdAtStr, updatedAtStr string

	if err := row.Scan(
		&p.ID,
		&p.Identifier,
		&p.DisplayName,
		&p.PasswordHash,
		&role,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return nil, err
	}

	var err error
	p.Role, err = ParseRole(role)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &p, nil
}
