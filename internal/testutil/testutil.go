package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"medquest/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations
// applied, via the same Open path production uses.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}
