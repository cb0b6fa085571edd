package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/classroom"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ classroom.AssignmentRepository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a classroom.Assignment) (classroom.Assignment, error) {
	q := repo.db.Rebind(`
		INSERT INTO assignments (id, title, description, subject, due_date, word_list, memory_verse, teacher_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.Title, a.Description, a.Subject, a.DueDate, a.WordList, a.MemoryVerse, a.TeacherID, a.CreatedAt.UTC())
	if err != nil {
		return classroom.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (classroom.Assignment, error) {
	var a classroom.Assignment
	q := repo.db.Rebind(`SELECT * FROM assignments WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &a, q, id); err != nil {
		return classroom.Assignment{}, trapNoRowsErr(err, classroom.ErrAssignmentNotFound, "finding assignment")
	}
	return a, nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context) ([]classroom.Assignment, error) {
	as := make([]classroom.Assignment, 0)
	q := `SELECT * FROM assignments ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &as, q); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return as, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, a classroom.Assignment) (classroom.Assignment, error) {
	q := repo.db.Rebind(`
		UPDATE assignments
		SET title = ?, description = ?, subject = ?, due_date = ?, word_list = ?, memory_verse = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		a.Title, a.Description, a.Subject, a.DueDate, a.WordList, a.MemoryVerse, a.ID)
	if err != nil {
		return classroom.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.Assignment{}, classroom.ErrAssignmentNotFound
	}
	return a, nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	q := repo.db.Rebind(`DELETE FROM assignments WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.ErrAssignmentNotFound
	}
	return nil
}

func (repo assignmentRepository) CountAssignments(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM assignments`); err != nil {
		return 0, errors.Wrap(err, "counting assignments")
	}
	return cnt, nil
}

func (repo assignmentRepository) CreateProgress(ctx context.Context, p classroom.StudentProgress) (classroom.StudentProgress, error) {
	q := repo.db.Rebind(`
		INSERT INTO student_progress
			(id, student_id, assignment_id, word_list_progress, memory_verse_progress, completed, submitted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		p.ID, p.StudentID, p.AssignmentID, p.WordListProgress, p.MemoryVerseProgress, p.Completed, p.SubmittedAt, p.CreatedAt.UTC())
	if err != nil {
		// student_id was checked by the service; an FK failure means the
		// assignment is gone.
		return classroom.StudentProgress{}, trapConstraintErr(err, nil, classroom.ErrAssignmentNotFound, "inserting progress")
	}
	return p, nil
}

func (repo assignmentRepository) GetProgress(ctx context.Context, studentID, assignmentID string) (classroom.StudentProgress, error) {
	var p classroom.StudentProgress
	q := repo.db.Rebind(`SELECT * FROM student_progress WHERE student_id = ? AND assignment_id = ?`)
	if err := repo.db.GetContext(ctx, &p, q, studentID, assignmentID); err != nil {
		return classroom.StudentProgress{}, trapNoRowsErr(err, classroom.ErrProgressNotFound, "finding progress")
	}
	return p, nil
}

func (repo assignmentRepository) UpdateProgress(ctx context.Context, p classroom.StudentProgress) (classroom.StudentProgress, error) {
	q := repo.db.Rebind(`
		UPDATE student_progress
		SET word_list_progress = ?, memory_verse_progress = ?, completed = ?, submitted_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		p.WordListProgress, p.MemoryVerseProgress, p.Completed, p.SubmittedAt, p.ID)
	if err != nil {
		return classroom.StudentProgress{}, errors.Wrap(err, "updating progress")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.StudentProgress{}, classroom.ErrProgressNotFound
	}
	return p, nil
}

func (repo assignmentRepository) QueryProgressByStudent(ctx context.Context, studentID string) ([]classroom.StudentProgress, error) {
	ps := make([]classroom.StudentProgress, 0)
	q := repo.db.Rebind(`SELECT * FROM student_progress WHERE student_id = ? ORDER BY created_at DESC`)
	if err := repo.db.SelectContext(ctx, &ps, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying progress by student")
	}
	return ps, nil
}
