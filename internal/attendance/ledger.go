package attendance

import (
	"context"
	"errors"
	"time"

	"rollcall/internal/course"
	"rollcall/internal/lesson"
)

// Record is one student's attendance at one lesson. The (lesson, student)
// pair is unique; Confirmed is the professor's overlay on the raw check-in.
type Record struct {
	LessonID    string
	StudentID   string
	CheckedInAt time.Time
	Confirmed   bool
}

// ErrNotSubscribed is returned when a student checks in against a course
// they are not enrolled in.
var ErrNotSubscribed = errors.New("student not subscribed to course")

// Store is the persistence surface for attendance records. InsertOnce must
// enforce the (lesson, student) key atomically and never overwrite an
// existing check-in timestamp.
type Store interface {
	InsertOnce(ctx context.Context, rec Record) (Record, bool, error)
	CheckedIn(ctx context.Context, lessonID string) ([]course.Student, error)
	ReplaceConfirmed(ctx context.Context, lessonID string, studentIDs []string) error
	ConfirmedByCourse(ctx context.Context, courseID string) ([]Record, error)
}

// LessonDirectory is the slice of the lifecycle manager the ledger needs.
type LessonDirectory interface {
	ByCode(ctx context.Context, code string) (lesson.Lesson, error)
	Get(ctx context.Context, lessonID string) (lesson.Lesson, error)
}

// Roster is the slice of the course registry the ledger needs.
type Roster interface {
	IsSubscribed(ctx context.Context, courseID, studentID string) (bool, error)
	Owner(ctx context.Context, courseID string) (string, error)
}

// Ledger records check-ins and the professor's confirmation pass.
type Ledger struct {
	store   Store
	lessons LessonDirectory
	roster  Roster
}

// NewLedger creates a ledger.
func NewLedger(store Store, lessons LessonDirectory, roster Roster) *Ledger {
	return &Ledger{store: store, lessons: lessons, roster: roster}
}

// CheckIn records the student against the lesson holding code. Idempotent:
// a repeat returns the original record and created=false. Fails with
// lesson.ErrInvalidCode when the code matches no active lesson and
// ErrNotSubscribed when the student is not enrolled.
func (l *Ledger) CheckIn(ctx context.Context, code, studentID string) (Record, bool, error) {
	les, err := l.lessons.ByCode(ctx, code)
	if err != nil {
		return Record{}, false, err
	}
	subscribed, err := l.roster.IsSubscribed(ctx, les.CourseID, studentID)
	if err != nil {
		return Record{}, false, err
	}
	if !subscribed {
		return Record{}, false, ErrNotSubscribed
	}
	rec := Record{
		LessonID:    les.ID,
		StudentID:   studentID,
		CheckedInAt: time.Now().UTC(),
	}
	return l.store.InsertOnce(ctx, rec)
}

// ListCheckedIn returns every student with a check-in for the lesson,
// confirmed or not, for the professor's review before confirming.
func (l *Ledger) ListCheckedIn(ctx context.Context, requesterID, lessonID string) ([]course.Student, error) {
	if _, err := l.ownedLesson(ctx, requesterID, lessonID); err != nil {
		return nil, err
	}
	return l.store.CheckedIn(ctx, lessonID)
}

// Confirm replaces the lesson's confirmed set: records for the given
// students are marked confirmed, every other record for the lesson is
// unmarked. Calling it again with the same set is a no-op. The lesson may
// be active or terminated; reconciliation commonly happens after
// termination.
func (l *Ledger) Confirm(ctx context.Context, requesterID, lessonID string, studentIDs []string) error {
	if _, err := l.ownedLesson(ctx, requesterID, lessonID); err != nil {
		return err
	}
	return l.store.ReplaceConfirmed(ctx, lessonID, studentIDs)
}

// ListConfirmed returns the confirmed records across all of the course's
// lessons, for reporting.
func (l *Ledger) ListConfirmed(ctx context.Context, requesterID, courseID string) ([]Record, error) {
	owner, err := l.roster.Owner(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if owner != requesterID {
		return nil, course.ErrNotOwner
	}
	return l.store.ConfirmedByCourse(ctx, courseID)
}

func (l *Ledger) ownedLesson(ctx context.Context, requesterID, lessonID string) (lesson.Lesson, error) {
	les, err := l.lessons.Get(ctx, lessonID)
	if err != nil {
		return lesson.Lesson{}, err
	}
	owner, err := l.roster.Owner(ctx, les.CourseID)
	if err != nil {
		return lesson.Lesson{}, err
	}
	if owner != requesterID {
		return lesson.Lesson{}, course.ErrNotOwner
	}
	return les, nil
}
