package classroom_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/activity"
	"github.com/nm2tech/classmate/core/classroom"
	"github.com/nm2tech/classmate/core/user"
	emailsvc "github.com/nm2tech/classmate/services/email"
	"github.com/nm2tech/classmate/storage/database"
	testutil "github.com/nm2tech/classmate/tests"
)

type fixture struct {
	svc     *classroom.Service
	usrSvc  *user.Service
	teacher user.Principal
	parent  user.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := testutil.NewConfig(t)
	db := testutil.OpenDB(t, conf)
	emailsvc.ClearSentMessages()

	auditSvc := activity.NewService(database.NewActivityRepository(db), testutil.NopLogger{})
	usrSvc := user.NewService(database.NewUserRepository(db), auditSvc)
	svc := classroom.NewService(
		database.NewNewsletterRepository(db),
		database.NewEventRepository(db),
		database.NewAssignmentRepository(db),
		usrSvc,
		emailsvc.NewConsoleServiceMock(conf),
		auditSvc,
		conf.AppName,
	)

	teacher, err := usrSvc.Create(context.Background(), user.NewUser{
		Username: "mrs.simms", Name: "Mrs. Simms", Role: user.RoleTeacher, Password: "password123",
	})
	require.NoError(t, err)
	parent, err := usrSvc.Create(context.Background(), user.NewUser{
		Username: "parent1", Name: "Parent One", Role: user.RoleParent,
		Email: "parent1@email.com", Password: "password123",
	})
	require.NoError(t, err)

	return fixture{
		svc:    svc,
		usrSvc: usrSvc,
		teacher: user.Principal{
			UserID: teacher.ID, Username: teacher.Username, Name: teacher.Name, Role: teacher.Role,
		},
		parent: user.Principal{
			UserID: parent.ID, Username: parent.Username, Name: parent.Name, Role: parent.Role,
		},
	}
}

func TestService_Newsletters(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	n, err := fix.svc.CreateNewsletter(ctx, fix.teacher, classroom.NewNewsletter{
		Title:   "Week 12",
		Content: `{"left_column":{"this_week":"Fractions"},"right_column":{"reminders":"Field trip Friday"}}`,
		Date:    "2026-03-20",
	})
	require.NoError(t, err)
	assert.Equal(t, fix.teacher.UserID, n.TeacherID)

	t.Run("latest returns the newest edition", func(t *testing.T) {
		latest, err := fix.svc.LatestNewsletter(ctx)
		require.NoError(t, err)
		assert.Equal(t, n.ID, latest.ID)
	})

	t.Run("send delivers to every parent with an email", func(t *testing.T) {
		sent, err := fix.svc.SendNewsletter(ctx, fix.teacher, n.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		require.Len(t, emailsvc.SentMessages, 1)
		msg := emailsvc.SentMessages[0]
		require.Len(t, msg.To, 1)
		assert.Equal(t, "parent1@email.com", msg.To[0].Address)
		assert.Contains(t, msg.Subject, "Week 12")
		assert.Contains(t, msg.TextContent, "Fractions")
		assert.Contains(t, msg.TextContent, "Field trip Friday")
	})

	t.Run("send of a missing edition is not found", func(t *testing.T) {
		_, err := fix.svc.SendNewsletter(ctx, fix.teacher, "no-such-id")
		assert.Equal(t, classroom.ErrNewsletterNotFound, err)
	})

	t.Run("delete removes the edition", func(t *testing.T) {
		require.NoError(t, fix.svc.DeleteNewsletter(ctx, fix.teacher, n.ID))
		_, err := fix.svc.GetNewsletter(ctx, n.ID)
		assert.Equal(t, classroom.ErrNewsletterNotFound, err)
	})
}

func TestService_RSVP(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	maxAttendees := 3
	event, err := fix.svc.CreateEvent(ctx, fix.teacher, classroom.NewEvent{
		Title:        "Spring Concert",
		EventDate:    "2026-04-10",
		EventTime:    "18:00",
		Location:     "Gym",
		MaxAttendees: &maxAttendees,
	})
	require.NoError(t, err)

	t.Run("rsvp against a missing event is a validation error", func(t *testing.T) {
		_, err := fix.svc.RSVP(ctx, fix.parent, "no-such-event", classroom.NewRSVP{AttendeesCount: 2})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "event_id", vErr.Fields[0].Field)
	})

	t.Run("rsvp within capacity succeeds", func(t *testing.T) {
		r, err := fix.svc.RSVP(ctx, fix.parent, event.ID, classroom.NewRSVP{AttendeesCount: 2, Notes: "bringing grandma"})
		require.NoError(t, err)
		assert.Equal(t, fix.parent.UserID, r.ParentID)
	})

	t.Run("rsvp past capacity is rejected", func(t *testing.T) {
		_, err := fix.svc.RSVP(ctx, fix.parent, event.ID, classroom.NewRSVP{AttendeesCount: 2})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "attendees_count", vErr.Fields[0].Field)
	})

	t.Run("rsvp filling capacity exactly succeeds", func(t *testing.T) {
		_, err := fix.svc.RSVP(ctx, fix.parent, event.ID, classroom.NewRSVP{AttendeesCount: 1})
		assert.NoError(t, err)
	})
}

func TestService_Progress(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	student, err := fix.usrSvc.Create(ctx, user.NewUser{
		Username: "student1", Role: user.RoleStudent, Password: "password123",
	})
	require.NoError(t, err)

	asg, err := fix.svc.CreateAssignment(ctx, fix.teacher, classroom.NewAssignment{
		Title:       "Spelling Week 12",
		Subject:     "Spelling",
		DueDate:     "2026-03-27",
		WordList:    "because, through, enough",
		MemoryVerse: "Psalm 23:1",
	})
	require.NoError(t, err)

	t.Run("progress against a missing assignment is a validation error", func(t *testing.T) {
		_, err := fix.svc.SubmitProgress(ctx, fix.teacher, classroom.NewProgress{
			StudentID:    student.ID,
			AssignmentID: "no-such-assignment",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "assignment_id", vErr.Fields[0].Field)
	})

	t.Run("progress for a missing student is a validation error", func(t *testing.T) {
		_, err := fix.svc.SubmitProgress(ctx, fix.teacher, classroom.NewProgress{
			StudentID:    "no-such-student",
			AssignmentID: asg.ID,
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "student_id", vErr.Fields[0].Field)
	})

	t.Run("submit then resubmit upserts one row", func(t *testing.T) {
		first, err := fix.svc.SubmitProgress(ctx, fix.teacher, classroom.NewProgress{
			StudentID:        student.ID,
			AssignmentID:     asg.ID,
			WordListProgress: "10/12",
		})
		require.NoError(t, err)
		assert.False(t, first.Completed)
		assert.Nil(t, first.SubmittedAt)

		second, err := fix.svc.SubmitProgress(ctx, fix.teacher, classroom.NewProgress{
			StudentID:        student.ID,
			AssignmentID:     asg.ID,
			WordListProgress: "12/12",
			Completed:        true,
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Completed)
		require.NotNil(t, second.SubmittedAt)

		all, err := fix.svc.ProgressByStudent(ctx, student.ID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestService_Reports(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	_, err := fix.svc.CreateNewsletter(ctx, fix.teacher, classroom.NewNewsletter{
		Title: "Week 1", Content: "{}", Date: "2026-01-09",
	})
	require.NoError(t, err)
	event, err := fix.svc.CreateEvent(ctx, fix.teacher, classroom.NewEvent{
		Title: "Open House", EventDate: "2026-02-01",
	})
	require.NoError(t, err)
	_, err = fix.svc.RSVP(ctx, fix.parent, event.ID, classroom.NewRSVP{AttendeesCount: 2})
	require.NoError(t, err)

	summary, err := fix.svc.Reports(ctx)
	require.NoError(t, err)
	assert.Equal(t, classroom.Summary{Newsletters: 1, Events: 1, Assignments: 0, RSVPs: 1}, summary)
}
