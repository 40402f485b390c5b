package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesTables(t *testing.T) {
	database := NewTestDB(t)

	tables := []string{
		"users", "settings", "revoked_tokens", "warehouses", "inventory_items",
		"equipment", "transfers", "transfer_inventory_items", "transfer_equipment_items",
		"tasks", "notifications",
	}
	for _, table := range tables {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	require.NoError(t, Migrate(database, DialectSQLite))

	v, err := SchemaVersion(database)
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestForeignKeysEnforced(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO transfer_inventory_items (id, transfer_id, inventory_id, quantity, created_at)
		VALUES ('x', 'missing', 'missing', 1, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}
