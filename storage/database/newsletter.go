package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/classroom"
)

type newsletterRepository struct {
	db *sqlx.DB
}

var _ classroom.NewsletterRepository = (*newsletterRepository)(nil) // interface compliance check

func NewNewsletterRepository(db *sqlx.DB) *newsletterRepository {
	return &newsletterRepository{db: db}
}

func (repo newsletterRepository) CreateNewsletter(ctx context.Context, n classroom.Newsletter) (classroom.Newsletter, error) {
	q := repo.db.Rebind(`
		INSERT INTO newsletters (id, title, content, date, teacher_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q, n.ID, n.Title, n.Content, n.Date, n.TeacherID, n.CreatedAt.UTC())
	if err != nil {
		return classroom.Newsletter{}, errors.Wrap(err, "inserting newsletter")
	}
	return n, nil
}

func (repo newsletterRepository) GetNewsletterByID(ctx context.Context, id string) (classroom.Newsletter, error) {
	var n classroom.Newsletter
	q := repo.db.Rebind(`SELECT * FROM newsletters WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &n, q, id); err != nil {
		return classroom.Newsletter{}, trapNoRowsErr(err, classroom.ErrNewsletterNotFound, "finding newsletter")
	}
	return n, nil
}

func (repo newsletterRepository) QueryNewsletters(ctx context.Context, limit int) ([]classroom.Newsletter, error) {
	ns := make([]classroom.Newsletter, 0)
	q := `SELECT * FROM newsletters ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := repo.db.SelectContext(ctx, &ns, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying newsletters")
	}
	return ns, nil
}

func (repo newsletterRepository) UpdateNewsletter(ctx context.Context, n classroom.Newsletter) (classroom.Newsletter, error) {
	q := repo.db.Rebind(`UPDATE newsletters SET title = ?, content = ?, date = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, n.Title, n.Content, n.Date, n.ID)
	if err != nil {
		return classroom.Newsletter{}, errors.Wrap(err, "updating newsletter")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.Newsletter{}, classroom.ErrNewsletterNotFound
	}
	return n, nil
}

func (repo newsletterRepository) DeleteNewsletter(ctx context.Context, id string) error {
	q := repo.db.Rebind(`DELETE FROM newsletters WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "deleting newsletter")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.ErrNewsletterNotFound
	}
	return nil
}

func (repo newsletterRepository) CountNewsletters(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM newsletters`); err != nil {
		return 0, errors.Wrap(err, "counting newsletters")
	}
	return cnt, nil
}
