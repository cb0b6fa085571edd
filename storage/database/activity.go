package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/activity"
)

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sqlx.DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo activityRepository) AppendEntry(ctx context.Context, entry activity.Entry) error {
	q := repo.db.Rebind(`
		INSERT INTO user_activity (id, user_id, username, role, activity_type, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		entry.ID, entry.UserID, entry.Username, entry.Role, entry.ActivityType, entry.IPAddress, entry.UserAgent, entry.CreatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "inserting activity entry")
	}
	return nil
}

func (repo activityRepository) QueryEntries(ctx context.Context, limit int) ([]activity.Entry, error) {
	entries := make([]activity.Entry, 0)
	q := `SELECT * FROM user_activity ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := repo.db.SelectContext(ctx, &entries, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying activity entries")
	}
	return entries, nil
}

func (repo activityRepository) CountEntriesByType(ctx context.Context, activityType string) (int, error) {
	var cnt int
	q := repo.db.Rebind(`SELECT COUNT(*) FROM user_activity WHERE activity_type = ?`)
	if err := repo.db.GetContext(ctx, &cnt, q, activityType); err != nil {
		return 0, errors.Wrap(err, "counting activity entries")
	}
	return cnt, nil
}
