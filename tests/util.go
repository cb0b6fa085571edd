package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/user"
	"github.com/nm2tech/classmate/storage/database"
)

// NewConfig returns a test config pointing the embedded store at a throwaway
// file under t.TempDir().
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		AppName:          "Classmate",
		Env:              "test",
		Debug:            true,
		SecretKey:        "test-secret-key",
		DefaultFromName:  "Classmate",
		DefaultFromEmail: "noreply@test.local",
		Server: core.ServerConfig{
			Addr:               ":0",
			JWTExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{
			Path: filepath.Join(t.TempDir(), "classmate_test.db"),
		},
	}
}

// OpenDB opens a migrated embedded store for the test and closes it on
// cleanup.
func OpenDB(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// CreateUser inserts a user directly through the repository.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, role, email, pwd string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Role:      role,
		Email:     email,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// NopLogger discards everything; it keeps rollbar out of tests.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Debug(msg string, args ...interface{}) {}
func (NopLogger) Info(msg string, args ...interface{})  {}
func (NopLogger) Warn(msg string, args ...interface{})  {}
func (NopLogger) Error(msg string, args ...interface{}) {}
func (NopLogger) Fatal(msg string, args ...interface{}) {}
