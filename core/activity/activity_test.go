package activity_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/nm2tech/classmate/core/activity"
)

type failingRepo struct{}

func (failingRepo) AppendEntry(ctx context.Context, entry activity.Entry) error {
	return errors.New("disk on fire")
}
func (failingRepo) QueryEntries(ctx context.Context, limit int) ([]activity.Entry, error) {
	return nil, nil
}
func (failingRepo) CountEntriesByType(ctx context.Context, activityType string) (int, error) {
	return 0, nil
}

type captureLogger struct {
	errored int
}

func (l *captureLogger) Debug(msg string, args ...interface{}) {}
func (l *captureLogger) Info(msg string, args ...interface{})  {}
func (l *captureLogger) Warn(msg string, args ...interface{})  {}
func (l *captureLogger) Error(msg string, args ...interface{}) { l.errored++ }
func (l *captureLogger) Fatal(msg string, args ...interface{}) {}

// Record is a best-effort side channel: a broken store must never take the
// primary action down with it.
func TestService_Record_neverFailsCaller(t *testing.T) {
	logger := &captureLogger{}
	svc := activity.NewService(failingRepo{}, logger)

	svc.Record(context.Background(), activity.Entry{
		ID:           "e1",
		Username:     "mrs.simms",
		ActivityType: activity.TypeLogin,
	})

	assert.Equal(t, 1, logger.errored)
}
