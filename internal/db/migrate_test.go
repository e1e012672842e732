package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := Init(ctx, "sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, RunMigrations(ctx, conn.DB, "sqlite"))

	for _, table := range []string{"objects", "tokens"} {
		var n int
		err := conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}

	// idempotent
	require.NoError(t, RunMigrations(ctx, conn.DB, "sqlite"))

	require.NoError(t, MigrateDown(ctx, conn.DB, "sqlite"))
	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tokens'`))
	assert.Equal(t, 0, n)
}

func TestRunMigrations_UnknownDriver(t *testing.T) {
	err := setupGoose("mysql")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, dir := range dirMap {
		entries, err := migrationsFS.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, dir)
	}
}
