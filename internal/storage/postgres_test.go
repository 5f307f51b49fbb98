package storage

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/storage/migrations"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthcheck(t *testing.T) {
	assert.NoError(t, Healthcheck(stubPinger{})(context.Background()))

	err := Healthcheck(stubPinger{err: errors.New("dial tcp: refused")})(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestMigrateRunsEmbeddedMigrations(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, migrate(context.Background(), nil))
	assert.Equal(t, ".", gotDir)
}

func TestMigrateWrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("relation already exists")
	}

	err := migrate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation already exists")
}

func TestUsersMigrationHasUniqueUsername(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "00001_create_users.sql")
	require.NoError(t, err)

	sqlText := string(data)
	assert.True(t, strings.Contains(sqlText, "-- +goose Up"))
	assert.True(t, strings.Contains(sqlText, "UNIQUE (username)"))
	assert.True(t, strings.Contains(sqlText, "password_hash"))
}

func TestConnectRejectsInvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), PostgresConfig{URL: "postgres://localhost:99999999/gk"})
	require.Error(t, err)
}
