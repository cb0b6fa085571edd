// Package database is the persistence adapter: one sqlx interface to the
// rest of the app, backed by either an embedded sqlite file or a hosted
// Postgres service depending on configuration.
package database

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/nm2tech/classmate/core"
)

func init() {
	// modernc registers as "sqlite", which sqlx's default bind table does not
	// know about. sqlite takes `?` placeholders.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type Kind int

const (
	BackendEmbedded Kind = iota
	BackendHosted
)

func (k Kind) String() string {
	if k == BackendHosted {
		return "hosted"
	}
	return "embedded"
}

// Backend decides which store the config addresses. It is a pure function of
// the config: same input, same answer, no side effects.
//
// Both URL and Key set and well-formed selects the hosted backend; both
// absent selects the embedded file store. Anything in between is a
// configuration error, never a silent fallback: degrading to the ephemeral
// local file when the operator meant to go remote is a data-loss trap.
func Backend(conf *core.Config) (Kind, error) {
	dbc := conf.Database
	switch {
	case dbc.URL == "" && dbc.Key == "":
		return BackendEmbedded, nil
	case dbc.URL == "":
		return 0, core.NewConfigError("database key set but url missing")
	case dbc.Key == "":
		return 0, core.NewConfigError("database url set but key missing")
	}

	u, err := url.Parse(dbc.URL)
	if err != nil {
		return 0, core.NewConfigError("parsing database url: %v", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return 0, core.NewConfigError("database url scheme %q: want postgres:// or postgresql://", u.Scheme)
	}
	if u.Host == "" {
		return 0, core.NewConfigError("database url has no host")
	}
	return BackendHosted, nil
}

// Open resolves the backend and returns a ready connection. Callers own the
// returned handle and must Close it.
func Open(conf *core.Config) (*sqlx.DB, error) {
	kind, err := Backend(conf)
	if err != nil {
		return nil, err
	}
	if kind == BackendHosted {
		return openHosted(conf)
	}
	return openEmbedded(conf)
}

func openHosted(conf *core.Config) (*sqlx.DB, error) {
	u, err := url.Parse(conf.Database.URL)
	if err != nil { // Backend already vetted this
		return nil, core.NewConfigError("parsing database url: %v", err)
	}

	usr := "postgres"
	if u.User != nil && u.User.Username() != "" {
		usr = u.User.Username()
	}
	// the key is the hosted role's credential; it rides as the DSN password
	u.User = url.UserPassword(usr, conf.Database.Key)
	u.Scheme = "postgres"

	q := u.Query()
	if q.Get("sslmode") == "" {
		sslMode := "require"
		if conf.Database.DisableTLS {
			sslMode = "disable"
		}
		q.Set("sslmode", sslMode)
	}
	q.Set("timezone", "utc")
	u.RawQuery = q.Encode()

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, errors.Wrap(err, "opening hosted database")
	}
	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openEmbedded(conf *core.Config) (*sqlx.DB, error) {
	path := conf.Database.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &core.StorageError{Path: path, Err: err}
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, &core.StorageError{Path: path, Err: err}
	}
	// one writer at a time; the file store has no server to arbitrate
	// concurrent writes across connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &core.StorageError{Path: path, Err: err}
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func dialectFor(db *sqlx.DB) string {
	if db.DriverName() == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate brings the schema up to date. goose's version table makes this safe
// to run any number of times against either backend.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialectFor(db)); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunGoose exposes the full goose command set to the admin CLI.
func RunGoose(ctx context.Context, command string, db *sqlx.DB, args ...string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialectFor(db)); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return goose.RunContext(ctx, command, db.DB, "migrations", args...)
}
