package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nm2tech/classmate/core"
)

// Newsletter is one edition of the classroom newsletter. Content is a JSON
// document (the two-column layout blocks); the API treats it as opaque text.
type Newsletter struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Date      string    `db:"date" json:"date"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Event struct {
	ID          string `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	EventDate   string `db:"event_date" json:"event_date"`
	EventTime   string `db:"event_time" json:"event_time"`
	Location    string `db:"location" json:"location"`
	// MaxAttendees is advisory; nil means unlimited.
	MaxAttendees *int      `db:"max_attendees" json:"max_attendees"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type EventRSVP struct {
	ID             string    `db:"id" json:"id"`
	EventID        string    `db:"event_id" json:"event_id"`
	ParentID       string    `db:"parent_id" json:"parent_id"`
	AttendeesCount int       `db:"attendees_count" json:"attendees_count"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type Assignment struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Subject     string    `db:"subject" json:"subject"`
	DueDate     string    `db:"due_date" json:"due_date"`
	WordList    string    `db:"word_list" json:"word_list"`
	MemoryVerse string    `db:"memory_verse" json:"memory_verse"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type StudentProgress struct {
	ID                  string     `db:"id" json:"id"`
	StudentID           string     `db:"student_id" json:"student_id"`
	AssignmentID        string     `db:"assignment_id" json:"assignment_id"`
	WordListProgress    string     `db:"word_list_progress" json:"word_list_progress"`
	MemoryVerseProgress string     `db:"memory_verse_progress" json:"memory_verse_progress"`
	Completed           bool       `db:"completed" json:"completed"`
	SubmittedAt         *time.Time `db:"submitted_at" json:"submitted_at"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// Request payloads

type NewNewsletter struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Date    string `json:"date" validate:"required"`
}

func (nn *NewNewsletter) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Date = core.CleanString(nn.Date)
	return validate.Struct(nn)
}

type NewEvent struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	EventDate    string `json:"event_date" validate:"required"`
	EventTime    string `json:"event_time"`
	Location     string `json:"location"`
	MaxAttendees *int   `json:"max_attendees" validate:"omitempty,gte=0"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	return validate.Struct(ne)
}

type NewRSVP struct {
	AttendeesCount int    `json:"attendees_count" validate:"gte=0"`
	Notes          string `json:"notes"`
}

func (nr *NewRSVP) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

type NewAssignment struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	DueDate     string `json:"due_date"`
	WordList    string `json:"word_list"`
	MemoryVerse string `json:"memory_verse"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Subject = core.CleanString(na.Subject)
	return validate.Struct(na)
}

type NewProgress struct {
	StudentID           string `json:"student_id" validate:"required"`
	AssignmentID        string `json:"assignment_id" validate:"required"`
	WordListProgress    string `json:"word_list_progress"`
	MemoryVerseProgress string `json:"memory_verse_progress"`
	Completed           bool   `json:"completed"`
}

func (np *NewProgress) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

// Summary is the teacher dashboard's report card.
type Summary struct {
	Newsletters int `json:"newsletters"`
	Events      int `json:"events"`
	Assignments int `json:"assignments"`
	RSVPs       int `json:"rsvps"`
}
