package activity

import (
	"context"
	"time"

	"github.com/nm2tech/classmate/core"
)

// Authentication activity types. Content actions use their own
// "<entity>_<verb>" strings at the call site.
const (
	TypeLogin       = "login"
	TypeLoginFailed = "login_failed"
)

type (
	// Entry is one append-only audit row. UserID is nil when the action could
	// not be tied to an existing account (failed logins, deleted users).
	Entry struct {
		ID           string    `db:"id" json:"id"`
		UserID       *string   `db:"user_id" json:"user_id"`
		Username     string    `db:"username" json:"username"`
		Role         string    `db:"role" json:"role"`
		ActivityType string    `db:"activity_type" json:"activity_type"`
		IPAddress    string    `db:"ip_address" json:"ip_address"`
		UserAgent    string    `db:"user_agent" json:"user_agent"`
		CreatedAt    time.Time `db:"created_at" json:"created_at"`
	}

	// RequestMeta carries the client details the HTTP layer knows about.
	RequestMeta struct {
		IPAddress string
		UserAgent string
	}

	Repository interface {
		AppendEntry(ctx context.Context, entry Entry) error
		QueryEntries(ctx context.Context, limit int) ([]Entry, error)
		CountEntriesByType(ctx context.Context, activityType string) (int, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one audit row. It never fails the caller: the audit trail is
// a best-effort side channel and must not block the primary action.
func (svc *Service) Record(ctx context.Context, entry Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := svc.repo.AppendEntry(ctx, entry); err != nil {
		svc.logger.Error("appending activity entry", err, map[string]interface{}{
			"username":      entry.Username,
			"activity_type": entry.ActivityType,
		})
	}
}

// Recent returns the newest entries, most recent first.
func (svc *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, limit)
}

func (svc *Service) CountByType(ctx context.Context, activityType string) (int, error) {
	return svc.repo.CountEntriesByType(ctx, activityType)
}
