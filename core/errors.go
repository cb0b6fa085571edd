package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConfigError means remote storage configuration was attempted but is
// unusable (missing half of the pair, wrong scheme, empty key). It is fatal
// at connection time: falling back to the embedded store behind the
// operator's back is exactly the data-loss trap this type exists to flag.
type ConfigError struct {
	Reason string
}

func NewConfigError(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

func (e ConfigError) Error() string {
	return "storage configuration: " + e.Reason
}

func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

// StorageError means the embedded store's file could not be created or
// opened. Fatal to the request.
type StorageError struct {
	Path string
	Err  error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("opening embedded store %s: %v", e.Path, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

func IsStorageError(err error) bool {
	var serr *StorageError
	return errors.As(err, &serr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
