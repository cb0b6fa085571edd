package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/activity"
	"github.com/nm2tech/classmate/core/user"
)

var (
	// errors
	ErrNewsletterNotFound = errors.New("newsletter not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrProgressNotFound   = errors.New("progress not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrEventFull          = errors.New("event is at capacity")
	ErrNoRecipients       = errors.New("no parent email addresses on file")
)

type (
	NewsletterRepository interface {
		CreateNewsletter(ctx context.Context, n Newsletter) (Newsletter, error)
		GetNewsletterByID(ctx context.Context, id string) (Newsletter, error)
		// QueryNewsletters returns newest first; limit <= 0 means all.
		QueryNewsletters(ctx context.Context, limit int) ([]Newsletter, error)
		UpdateNewsletter(ctx context.Context, n Newsletter) (Newsletter, error)
		DeleteNewsletter(ctx context.Context, id string) error
		CountNewsletters(ctx context.Context) (int, error)
	}

	EventRepository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		// QueryEvents returns events ordered by event_date ascending.
		QueryEvents(ctx context.Context) ([]Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
		CountEvents(ctx context.Context) (int, error)

		CreateRSVP(ctx context.Context, r EventRSVP) (EventRSVP, error)
		QueryRSVPsByEvent(ctx context.Context, eventID string) ([]EventRSVP, error)
		SumRSVPAttendees(ctx context.Context, eventID string) (int, error)
		CountRSVPs(ctx context.Context) (int, error)
	}

	AssignmentRepository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments returns newest first.
		QueryAssignments(ctx context.Context) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error
		CountAssignments(ctx context.Context) (int, error)

		CreateProgress(ctx context.Context, p StudentProgress) (StudentProgress, error)
		GetProgress(ctx context.Context, studentID, assignmentID string) (StudentProgress, error)
		UpdateProgress(ctx context.Context, p StudentProgress) (StudentProgress, error)
		QueryProgressByStudent(ctx context.Context, studentID string) ([]StudentProgress, error)
	}

	Service struct {
		newsRepo  NewsletterRepository
		eventRepo EventRepository
		asgRepo   AssignmentRepository
		usrSvc    *user.Service
		mailSvc   core.EmailService
		audit     *activity.Service
		appName   string
	}
)

func NewService(
	newsRepo NewsletterRepository,
	eventRepo EventRepository,
	asgRepo AssignmentRepository,
	usrSvc *user.Service,
	mailSvc core.EmailService,
	audit *activity.Service,
	appName string,
) *Service {
	return &Service{
		newsRepo:  newsRepo,
		eventRepo: eventRepo,
		asgRepo:   asgRepo,
		usrSvc:    usrSvc,
		mailSvc:   mailSvc,
		audit:     audit,
		appName:   appName,
	}
}

// Newsletters

func (svc *Service) CreateNewsletter(ctx context.Context, actor user.Principal, nn NewNewsletter) (Newsletter, error) {
	n := Newsletter{
		ID:        uuid.New().String(),
		Title:     nn.Title,
		Content:   nn.Content,
		Date:      nn.Date,
		TeacherID: actor.UserID,
		CreatedAt: time.Now().UTC(),
	}
	created, err := svc.newsRepo.CreateNewsletter(ctx, n)
	if err != nil {
		return Newsletter{}, err
	}
	svc.recordAction(ctx, actor, "newsletter_created")
	return created, nil
}

func (svc *Service) Newsletters(ctx context.Context, limit int) ([]Newsletter, error) {
	return svc.newsRepo.QueryNewsletters(ctx, limit)
}

func (svc *Service) GetNewsletter(ctx context.Context, id string) (Newsletter, error) {
	return svc.newsRepo.GetNewsletterByID(ctx, id)
}

// LatestNewsletter returns the most recently created edition.
func (svc *Service) LatestNewsletter(ctx context.Context) (Newsletter, error) {
	ns, err := svc.newsRepo.QueryNewsletters(ctx, 1)
	if err != nil {
		return Newsletter{}, err
	}
	if len(ns) == 0 {
		return Newsletter{}, ErrNewsletterNotFound
	}
	return ns[0], nil
}

func (svc *Service) UpdateNewsletter(ctx context.Context, actor user.Principal, id string, nn NewNewsletter) (Newsletter, error) {
	n, err := svc.newsRepo.GetNewsletterByID(ctx, id)
	if err != nil {
		return Newsletter{}, err
	}
	n.Title = nn.Title
	n.Content = nn.Content
	n.Date = nn.Date
	updated, err := svc.newsRepo.UpdateNewsletter(ctx, n)
	if err != nil {
		return Newsletter{}, err
	}
	svc.recordAction(ctx, actor, "newsletter_updated")
	return updated, nil
}

func (svc *Service) DeleteNewsletter(ctx context.Context, actor user.Principal, id string) error {
	if err := svc.newsRepo.DeleteNewsletter(ctx, id); err != nil {
		return err
	}
	svc.recordAction(ctx, actor, "newsletter_deleted")
	return nil
}

// SendNewsletter emails one edition to every parent with an email address on
// file. Delivery is asynchronous; the returned count is the number of
// recipients the message was handed off for.
func (svc *Service) SendNewsletter(ctx context.Context, actor user.Principal, id string) (int, error) {
	n, err := svc.newsRepo.GetNewsletterByID(ctx, id)
	if err != nil {
		return 0, err
	}

	parents, err := svc.usrSvc.QueryByRole(ctx, user.RoleParent)
	if err != nil {
		return 0, err
	}
	to := make([]mail.Address, 0, len(parents))
	for _, p := range parents {
		if p.Email != "" {
			to = append(to, mail.Address{Name: p.Name, Address: p.Email})
		}
	}
	if len(to) == 0 {
		return 0, core.NewValidationError(ErrNoRecipients)
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          to,
		Subject:     "Classroom Newsletter: " + n.Title,
		TextContent: svc.renderNewsletter(n),
	})
	svc.recordAction(ctx, actor, "newsletter_sent")
	return len(to), nil
}

// SendLatest emails the most recent edition.
func (svc *Service) SendLatest(ctx context.Context, actor user.Principal) (int, error) {
	n, err := svc.LatestNewsletter(ctx)
	if err != nil {
		return 0, err
	}
	return svc.SendNewsletter(ctx, actor, n.ID)
}

// renderNewsletter flattens the stored JSON content into a plain-text body.
// Unknown content shapes fall back to the raw text.
func (svc *Service) renderNewsletter(n Newsletter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", n.Title, n.Date)

	var content map[string]map[string]string
	if err := json.Unmarshal([]byte(n.Content), &content); err != nil {
		b.WriteString(n.Content)
		return b.String()
	}
	for _, col := range []string{"left_column", "right_column"} {
		for section, text := range content[col] {
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, "%s:\n%s\n\n", strings.ToUpper(strings.ReplaceAll(section, "_", " ")), text)
		}
	}
	return b.String()
}

// Events

func (svc *Service) CreateEvent(ctx context.Context, actor user.Principal, ne NewEvent) (Event, error) {
	e := Event{
		ID:           uuid.New().String(),
		Title:        ne.Title,
		Description:  ne.Description,
		EventDate:    ne.EventDate,
		EventTime:    ne.EventTime,
		Location:     ne.Location,
		MaxAttendees: ne.MaxAttendees,
		TeacherID:    actor.UserID,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := svc.eventRepo.CreateEvent(ctx, e)
	if err != nil {
		return Event{}, err
	}
	svc.recordAction(ctx, actor, "event_created")
	return created, nil
}

func (svc *Service) Events(ctx context.Context) ([]Event, error) {
	return svc.eventRepo.QueryEvents(ctx)
}

func (svc *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	return svc.eventRepo.GetEventByID(ctx, id)
}

func (svc *Service) UpdateEvent(ctx context.Context, actor user.Principal, id string, ne NewEvent) (Event, error) {
	e, err := svc.eventRepo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	e.Title = ne.Title
	e.Description = ne.Description
	e.EventDate = ne.EventDate
	e.EventTime = ne.EventTime
	e.Location = ne.Location
	e.MaxAttendees = ne.MaxAttendees
	updated, err := svc.eventRepo.UpdateEvent(ctx, e)
	if err != nil {
		return Event{}, err
	}
	svc.recordAction(ctx, actor, "event_updated")
	return updated, nil
}

func (svc *Service) DeleteEvent(ctx context.Context, actor user.Principal, id string) error {
	if err := svc.eventRepo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	svc.recordAction(ctx, actor, "event_deleted")
	return nil
}

// RSVP files a parent's reply to an event. The capacity check is advisory
// (app-level, not a schema constraint): concurrent replies may still
// overshoot, which is accepted for this workload.
func (svc *Service) RSVP(ctx context.Context, actor user.Principal, eventID string, nr NewRSVP) (EventRSVP, error) {
	e, err := svc.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return EventRSVP{}, core.NewValidationError(err, core.FieldError{Field: "event_id", Error: err.Error()})
		}
		return EventRSVP{}, err
	}

	if e.MaxAttendees != nil {
		taken, err := svc.eventRepo.SumRSVPAttendees(ctx, eventID)
		if err != nil {
			return EventRSVP{}, err
		}
		if taken+nr.AttendeesCount > *e.MaxAttendees {
			return EventRSVP{}, core.NewValidationError(ErrEventFull, core.FieldError{Field: "attendees_count", Error: ErrEventFull.Error()})
		}
	}

	r := EventRSVP{
		ID:             uuid.New().String(),
		EventID:        eventID,
		ParentID:       actor.UserID,
		AttendeesCount: nr.AttendeesCount,
		Notes:          nr.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	created, err := svc.eventRepo.CreateRSVP(ctx, r)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return EventRSVP{}, core.NewValidationError(err, core.FieldError{Field: "event_id", Error: err.Error()})
		}
		return EventRSVP{}, err
	}
	svc.recordAction(ctx, actor, "rsvp_created")
	return created, nil
}

func (svc *Service) EventRSVPs(ctx context.Context, eventID string) ([]EventRSVP, error) {
	return svc.eventRepo.QueryRSVPsByEvent(ctx, eventID)
}

// Assignments

func (svc *Service) CreateAssignment(ctx context.Context, actor user.Principal, na NewAssignment) (Assignment, error) {
	a := Assignment{
		ID:          uuid.New().String(),
		Title:       na.Title,
		Description: na.Description,
		Subject:     na.Subject,
		DueDate:     na.DueDate,
		WordList:    na.WordList,
		MemoryVerse: na.MemoryVerse,
		TeacherID:   actor.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := svc.asgRepo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, err
	}
	svc.recordAction(ctx, actor, "assignment_created")
	return created, nil
}

func (svc *Service) Assignments(ctx context.Context) ([]Assignment, error) {
	return svc.asgRepo.QueryAssignments(ctx)
}

func (svc *Service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return svc.asgRepo.GetAssignmentByID(ctx, id)
}

func (svc *Service) UpdateAssignment(ctx context.Context, actor user.Principal, id string, na NewAssignment) (Assignment, error) {
	a, err := svc.asgRepo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	a.Title = na.Title
	a.Description = na.Description
	a.Subject = na.Subject
	a.DueDate = na.DueDate
	a.WordList = na.WordList
	a.MemoryVerse = na.MemoryVerse
	updated, err := svc.asgRepo.UpdateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, err
	}
	svc.recordAction(ctx, actor, "assignment_updated")
	return updated, nil
}

func (svc *Service) DeleteAssignment(ctx context.Context, actor user.Principal, id string) error {
	if err := svc.asgRepo.DeleteAssignment(ctx, id); err != nil {
		return err
	}
	svc.recordAction(ctx, actor, "assignment_deleted")
	return nil
}

// SubmitProgress records (or overwrites) one student's progress on one
// assignment. Marking completed stamps submitted_at.
func (svc *Service) SubmitProgress(ctx context.Context, actor user.Principal, np NewProgress) (StudentProgress, error) {
	if _, err := svc.usrSvc.GetByID(ctx, np.StudentID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return StudentProgress{}, core.NewValidationError(ErrStudentNotFound, core.FieldError{Field: "student_id", Error: ErrStudentNotFound.Error()})
		}
		return StudentProgress{}, err
	}

	now := time.Now().UTC()
	p, err := svc.asgRepo.GetProgress(ctx, np.StudentID, np.AssignmentID)
	switch {
	case err == nil:
		p.WordListProgress = np.WordListProgress
		p.MemoryVerseProgress = np.MemoryVerseProgress
		p.Completed = np.Completed
		if np.Completed && p.SubmittedAt == nil {
			p.SubmittedAt = &now
		}
		updated, err := svc.asgRepo.UpdateProgress(ctx, p)
		if err != nil {
			return StudentProgress{}, err
		}
		svc.recordAction(ctx, actor, "progress_updated")
		return updated, nil
	case errors.Is(err, ErrProgressNotFound):
		p = StudentProgress{
			ID:                  uuid.New().String(),
			StudentID:           np.StudentID,
			AssignmentID:        np.AssignmentID,
			WordListProgress:    np.WordListProgress,
			MemoryVerseProgress: np.MemoryVerseProgress,
			Completed:           np.Completed,
			CreatedAt:           now,
		}
		if np.Completed {
			p.SubmittedAt = &now
		}
		created, err := svc.asgRepo.CreateProgress(ctx, p)
		if err != nil {
			if errors.Is(err, ErrAssignmentNotFound) {
				return StudentProgress{}, core.NewValidationError(err, core.FieldError{Field: "assignment_id", Error: err.Error()})
			}
			return StudentProgress{}, err
		}
		svc.recordAction(ctx, actor, "progress_submitted")
		return created, nil
	default:
		return StudentProgress{}, err
	}
}

func (svc *Service) ProgressByStudent(ctx context.Context, studentID string) ([]StudentProgress, error) {
	return svc.asgRepo.QueryProgressByStudent(ctx, studentID)
}

// Reports

func (svc *Service) Reports(ctx context.Context) (Summary, error) {
	var s Summary
	var err error
	if s.Newsletters, err = svc.newsRepo.CountNewsletters(ctx); err != nil {
		return Summary{}, err
	}
	if s.Events, err = svc.eventRepo.CountEvents(ctx); err != nil {
		return Summary{}, err
	}
	if s.Assignments, err = svc.asgRepo.CountAssignments(ctx); err != nil {
		return Summary{}, err
	}
	if s.RSVPs, err = svc.eventRepo.CountRSVPs(ctx); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (svc *Service) recordAction(ctx context.Context, actor user.Principal, activityType string) {
	svc.audit.Record(ctx, activity.Entry{
		ID:           uuid.New().String(),
		UserID:       &actor.UserID,
		Username:     actor.Username,
		Role:         actor.Role,
		ActivityType: activityType,
	})
}
