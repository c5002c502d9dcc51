package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsIsRepeatable(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 2; i++ {
		version, dirty, err := RunMigrations(db)
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
		assert.False(t, dirty)
	}

	var tables int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('pushed_items', 'schema_migrations')`,
	).Scan(&tables))
	assert.Equal(t, 2, tables)

	// The migrator must leave the connection usable.
	require.NoError(t, db.Ping())
}
