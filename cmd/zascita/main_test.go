package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zascita/internal/config"
	"github.com/erazemk/zascita/internal/db"
	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "serve", opts.command)
	assert.Equal(t, "Admin", opts.adminUser)

	opts, err = parseArgs([]string{"init", "-u", "root", "-d", "x.db"})
	require.NoError(t, err)
	assert.Equal(t, "init", opts.command)
	assert.Equal(t, "root", opts.adminUser)
	assert.Equal(t, "x.db", opts.dsn)

	_, err = parseArgs([]string{"explode"})
	assert.Error(t, err)

	_, err = parseArgs([]string{"serve", "extra"})
	assert.Error(t, err)
}

func TestOptionsApply(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	opts := &options{addr: ":9999", dsn: "other.db"}
	require.NoError(t, opts.apply(cfg))
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "other.db", cfg.Database.DSN)
}

func TestCreateAdminOnce(t *testing.T) {
	st := store.New(db.NewTestDB(t), db.DialectSQLite)
	ctx := context.Background()

	password, err := createAdmin(ctx, st, "Admin")
	require.NoError(t, err)
	assert.Len(t, password, 16)

	u, err := st.GetUserByUsername(ctx, "Admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = createAdmin(ctx, st, "Admin2")
	assert.ErrorIs(t, err, errInitialized)
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(24)
	require.NoError(t, err)
	b, err := generatePassword(24)
	require.NoError(t, err)
	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
}
