package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nm2tech/classmate/core/classroom"
)

type eventRepository struct {
	db *sqlx.DB
}

var _ classroom.EventRepository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) CreateEvent(ctx context.Context, e classroom.Event) (classroom.Event, error) {
	q := repo.db.Rebind(`
		INSERT INTO events (id, title, description, event_date, event_time, location, max_attendees, teacher_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Description, e.EventDate, e.EventTime, e.Location, e.MaxAttendees, e.TeacherID, e.CreatedAt.UTC())
	if err != nil {
		return classroom.Event{}, errors.Wrap(err, "inserting event")
	}
	return e, nil
}

func (repo eventRepository) GetEventByID(ctx context.Context, id string) (classroom.Event, error) {
	var e classroom.Event
	q := repo.db.Rebind(`SELECT * FROM events WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &e, q, id); err != nil {
		return classroom.Event{}, trapNoRowsErr(err, classroom.ErrEventNotFound, "finding event")
	}
	return e, nil
}

func (repo eventRepository) QueryEvents(ctx context.Context) ([]classroom.Event, error) {
	es := make([]classroom.Event, 0)
	q := `SELECT * FROM events ORDER BY event_date, event_time`
	if err := repo.db.SelectContext(ctx, &es, q); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return es, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, e classroom.Event) (classroom.Event, error) {
	q := repo.db.Rebind(`
		UPDATE events
		SET title = ?, description = ?, event_date = ?, event_time = ?, location = ?, max_attendees = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		e.Title, e.Description, e.EventDate, e.EventTime, e.Location, e.MaxAttendees, e.ID)
	if err != nil {
		return classroom.Event{}, errors.Wrap(err, "updating event")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.Event{}, classroom.ErrEventNotFound
	}
	return e, nil
}

func (repo eventRepository) DeleteEvent(ctx context.Context, id string) error {
	q := repo.db.Rebind(`DELETE FROM events WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return classroom.ErrEventNotFound
	}
	return nil
}

func (repo eventRepository) CountEvents(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM events`); err != nil {
		return 0, errors.Wrap(err, "counting events")
	}
	return cnt, nil
}

func (repo eventRepository) CreateRSVP(ctx context.Context, r classroom.EventRSVP) (classroom.EventRSVP, error) {
	q := repo.db.Rebind(`
		INSERT INTO event_rsvps (id, event_id, parent_id, attendees_count, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q, r.ID, r.EventID, r.ParentID, r.AttendeesCount, r.Notes, r.CreatedAt.UTC())
	if err != nil {
		// the only FKs on event_rsvps are event_id and parent_id; the service
		// resolved parent_id from an authenticated principal, so a violation
		// here means the event vanished.
		return classroom.EventRSVP{}, trapConstraintErr(err, nil, classroom.ErrEventNotFound, "inserting RSVP")
	}
	return r, nil
}

func (repo eventRepository) QueryRSVPsByEvent(ctx context.Context, eventID string) ([]classroom.EventRSVP, error) {
	rs := make([]classroom.EventRSVP, 0)
	q := repo.db.Rebind(`SELECT * FROM event_rsvps WHERE event_id = ? ORDER BY created_at`)
	if err := repo.db.SelectContext(ctx, &rs, q, eventID); err != nil {
		return nil, errors.Wrap(err, "querying RSVPs")
	}
	return rs, nil
}

func (repo eventRepository) SumRSVPAttendees(ctx context.Context, eventID string) (int, error) {
	var sum int
	q := repo.db.Rebind(`SELECT COALESCE(SUM(attendees_count), 0) FROM event_rsvps WHERE event_id = ?`)
	if err := repo.db.GetContext(ctx, &sum, q, eventID); err != nil {
		return 0, errors.Wrap(err, "summing RSVP attendees")
	}
	return sum, nil
}

func (repo eventRepository) CountRSVPs(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM event_rsvps`); err != nil {
		return 0, errors.Wrap(err, "counting RSVPs")
	}
	return cnt, nil
}
