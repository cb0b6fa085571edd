package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/storage/database"
)

func embeddedConf(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		Database: core.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
}

func TestBackend(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		key     string
		want    database.Kind
		wantErr bool
	}{
		{name: "both empty selects embedded", want: database.BackendEmbedded},
		{name: "both set selects hosted", url: "postgres://db.example.com:5432/app", key: "s3cret", want: database.BackendHosted},
		{name: "postgresql scheme accepted", url: "postgresql://db.example.com/app", key: "s3cret", want: database.BackendHosted},
		{name: "key without url", key: "s3cret", wantErr: true},
		{name: "url without key", url: "postgres://db.example.com/app", wantErr: true},
		{name: "wrong scheme", url: "mysql://db.example.com/app", key: "s3cret", wantErr: true},
		{name: "no host", url: "postgres://", key: "s3cret", wantErr: true},
		{name: "unparseable url", url: "postgres://db.example.com/app\x00", key: "s3cret", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{Database: core.DatabaseConfig{URL: tt.url, Key: tt.key}}

			kind, err := database.Backend(conf)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsConfigError(err), "want a ConfigError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)

			// same input, same answer
			again, err := database.Backend(conf)
			require.NoError(t, err)
			assert.Equal(t, kind, again)
		})
	}
}

func TestOpen_configErrorNeverFallsBack(t *testing.T) {
	conf := embeddedConf(t)
	conf.Database.Key = "s3cret" // key without url

	db, err := database.Open(conf)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.True(t, core.IsConfigError(err))
	// no embedded file must have been created
	_, statErr := os.Stat(conf.Database.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpen_embedded(t *testing.T) {
	conf := embeddedConf(t)

	db, err := database.Open(conf)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
	_, err = os.Stat(conf.Database.Path)
	assert.NoError(t, err)
}

func TestOpen_embeddedUnusablePath(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not bind as root")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500)) // no write permission
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	conf := &core.Config{
		Database: core.DatabaseConfig{Path: filepath.Join(dir, "sub", "test.db")},
	}

	_, err := database.Open(conf)
	require.Error(t, err)
	assert.True(t, core.IsStorageError(err), "want a StorageError, got %T", err)
}

func TestMigrate_rerunIsIdempotent(t *testing.T) {
	conf := embeddedConf(t)

	db, err := database.Open(conf)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.Migrate(db))
	// a second pass must be a no-op, not a duplicate-column failure
	require.NoError(t, database.Migrate(db))

	// the profile migration ran exactly once: one name and one parent_id column
	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM pragma_table_info('users')`))
	var nameCols, parentCols int
	for _, n := range names {
		switch n {
		case "name":
			nameCols++
		case "parent_id":
			parentCols++
		}
	}
	assert.Equal(t, 1, nameCols)
	assert.Equal(t, 1, parentCols)
}
