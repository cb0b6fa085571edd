package database

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	sqlite "modernc.org/sqlite"
)

// Postgres SQLSTATE / sqlite extended result codes for constraint failures.
const (
	pqUniqueViolation = "23505"
	pqFKViolation     = "23503"

	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintForeignKey = 787
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqliteConstraintUnique || liteErr.Code() == sqliteConstraintPrimaryKey
	}
	return false
}

func isFKViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqFKViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqliteConstraintForeignKey
	}
	return false
}

// trapConstraintErr maps driver-specific constraint failures onto the domain
// sentinels the caller cares about; anything else gets wrapped as-is so no
// raw backend text leaks past the service layer.
func trapConstraintErr(err error, uniqueErr, fkErr error, msg string) error {
	switch {
	case uniqueErr != nil && isUniqueViolation(err):
		return uniqueErr
	case fkErr != nil && isFKViolation(err):
		return fkErr
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr maps sql.ErrNoRows to the domain's not-found sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}
