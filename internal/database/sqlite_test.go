package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat.db")

	db, err := InitDB(path)
	require.NoError(t, err)

	for _, table := range []string{"conversations", "messages", "settings"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
	require.NoError(t, db.Close())

	// Re-opening an up-to-date database is a no-op.
	db, err = InitDB(path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
