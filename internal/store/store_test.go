// ABOUTME: Tests for SQLite store construction and schema
// ABOUTME: Covers file creation, nested directories, in-memory mode, and reopen persistence

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.CreatePrincipal(ctx, &Principal{
		ID:           "p-1",
		Identifier:   "mem@x.com",
		DisplayName:  "Mem",
		PasswordHash: "hash",
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}))

	// A second query must see the same database, not a fresh connection's.
	got, err := store.GetPrincipalByIdentifier(ctx, "mem@x.com")
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
}

func TestNewSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.CreatePrincipal(ctx, &Principal{
		ID:           "p-1",
		Identifier:   "persist@x.com",
		DisplayName:  "Persist",
		PasswordHash: "hash",
		Role:         RoleProfessor,
		CreatedAt:    time.Now().UTC(),
	}))
	require.NoError(t, first.Close())

	// Schema creation is idempotent and data survives
	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetPrincipalByIdentifier(ctx, "persist@x.com")
	require.NoError(t, err)
	assert.Equal(t, RoleProfessor, got.Role)
}
