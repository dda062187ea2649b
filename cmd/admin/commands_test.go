package main

import (
	"bytes"
	"errors"
	"testing"

	"recipebox/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func execute(t *testing.T, connect connector, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(connect)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUsersCommands(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	connect := func() (*gorm.DB, error) { return db, nil }

	out, err := execute(t, connect, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found")

	out, err = execute(t, connect, "users", "create", "--email", "Cook@Example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user cook@example.com")

	_, err = execute(t, connect, "users", "create", "--email", "cook@example.com", "--password", "secret1")
	assert.Error(t, err)

	_, err = execute(t, connect, "users", "create", "--email", "short@example.com", "--password", "abc")
	assert.Error(t, err)

	out, err = execute(t, connect, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "cook@example.com")
	assert.NotContains(t, out, "short@example.com")
}

func TestMigrateCommands(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	connect := func() (*gorm.DB, error) { return db, nil }

	out, err := execute(t, connect, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending: 000001_init")

	_, err = execute(t, connect, "migrate", "rollback", "abc")
	assert.ErrorContains(t, err, "invalid version")

	_, err = execute(t, connect, "migrate", "rollback", "1")
	assert.ErrorContains(t, err, "has not been applied")
}

func TestConnectFailure(t *testing.T) {
	boom := errors.New("no database")
	_, err := execute(t, func() (*gorm.DB, error) { return nil, boom }, "users", "list")
	assert.ErrorIs(t, err, boom)

	out, err := execute(t, func() (*gorm.DB, error) { return nil, boom }, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate")
}
