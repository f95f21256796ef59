package lesson

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/course"
)

// Lesson is an open time window during which its code admits check-ins.
// EndedAt is nil exactly while the lesson is active; termination sets it
// and is final.
type Lesson struct {
	ID        string
	CourseID  string
	Code      string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Active reports whether the lesson still accepts check-ins.
func (l Lesson) Active() bool { return l.EndedAt == nil }

var (
	// ErrAlreadyActive is returned when starting a lesson for a course
	// that already has one running.
	ErrAlreadyActive = errors.New("course already has an active lesson")
	// ErrNoActiveLesson is returned when terminating a course with no
	// running lesson.
	ErrNoActiveLesson = errors.New("course has no active lesson")
	// ErrNotFound is returned for unknown lesson ids.
	ErrNotFound = errors.New("lesson not found")
	// ErrInvalidCode is returned when a code resolves to no active lesson,
	// either because it was never issued or its lesson terminated.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrCodeInUse is returned by stores when an insert lost the race for
	// a code to another active lesson; the manager re-rolls on it.
	ErrCodeInUse = errors.New("code already bound to an active lesson")
)

// Store is the persistence surface for lessons. InsertActive must enforce
// both active-lesson uniqueness per course and active-code uniqueness
// atomically, reporting ErrAlreadyActive and ErrCodeInUse respectively.
type Store interface {
	InsertActive(ctx context.Context, l Lesson) error
	Terminate(ctx context.Context, courseID string, endedAt time.Time) (Lesson, error)
	Active(ctx context.Context, courseID string) (Lesson, bool, error)
	ActiveByCode(ctx context.Context, code string) (Lesson, bool, error)
	ActiveCodes(ctx context.Context) ([]string, error)
	ByCourse(ctx context.Context, courseID string) ([]Lesson, error)
	ByID(ctx context.Context, lessonID string) (Lesson, bool, error)
}

// CourseDirectory is the slice of the registry the manager needs.
type CourseDirectory interface {
	Owner(ctx context.Context, courseID string) (string, error)
}

// Manager owns the lesson state machine.
type Manager struct {
	store   Store
	courses CourseDirectory
	codes   *CodeGenerator
}

// NewManager creates a lifecycle manager.
func NewManager(store Store, courses CourseDirectory, codes *CodeGenerator) *Manager {
	if codes == nil {
		codes = NewCodeGenerator(0, 0)
	}
	return &Manager{store: store, courses: courses, codes: codes}
}

// Start mints a code and opens a lesson for the course. Fails with
// course.ErrNotFound, course.ErrNotOwner or ErrAlreadyActive. A code-insert
// race is resolved by re-rolling against a fresh active-code set.
func (m *Manager) Start(ctx context.Context, professorID, courseID string) (Lesson, error) {
	if err := m.ownedBy(ctx, professorID, courseID); err != nil {
		return Lesson{}, err
	}
	for attempt := 0; attempt < 3; attempt++ {
		active, err := m.store.ActiveCodes(ctx)
		if err != nil {
			return Lesson{}, err
		}
		taken := make(map[string]struct{}, len(active))
		for _, c := range active {
			taken[c] = struct{}{}
		}
		code, err := m.codes.Generate(func(c string) bool {
			_, ok := taken[c]
			return ok
		})
		if err != nil {
			return Lesson{}, err
		}
		l := Lesson{
			ID:        uuid.NewString(),
			CourseID:  courseID,
			Code:      code,
			StartedAt: time.Now().UTC(),
		}
		err = m.store.InsertActive(ctx, l)
		if errors.Is(err, ErrCodeInUse) {
			continue
		}
		if err != nil {
			return Lesson{}, err
		}
		return l, nil
	}
	return Lesson{}, ErrCodeSpaceExhausted
}

// Terminate closes the course's active lesson. The transition is terminal;
// the code becomes free for future lessons the moment the end timestamp is
// set. Fails with ErrNoActiveLesson when nothing is running.
func (m *Manager) Terminate(ctx context.Context, professorID, courseID string) (Lesson, error) {
	if err := m.ownedBy(ctx, professorID, courseID); err != nil {
		return Lesson{}, err
	}
	return m.store.Terminate(ctx, courseID, time.Now().UTC())
}

// Active returns the course's running lesson, if any.
func (m *Manager) Active(ctx context.Context, courseID string) (Lesson, bool, error) {
	if _, err := m.courses.Owner(ctx, courseID); err != nil {
		return Lesson{}, false, err
	}
	return m.store.Active(ctx, courseID)
}

// ListForCourse returns the course's lesson history, newest first. Only the
// owning professor may list.
func (m *Manager) ListForCourse(ctx context.Context, requesterID, courseID string) ([]Lesson, error) {
	if err := m.ownedBy(ctx, requesterID, courseID); err != nil {
		return nil, err
	}
	return m.store.ByCourse(ctx, courseID)
}

// ByCode resolves an active code for the check-in path.
func (m *Manager) ByCode(ctx context.Context, code string) (Lesson, error) {
	l, ok, err := m.store.ActiveByCode(ctx, code)
	if err != nil {
		return Lesson{}, err
	}
	if !ok {
		return Lesson{}, ErrInvalidCode
	}
	return l, nil
}

// Get returns a lesson by id regardless of state.
func (m *Manager) Get(ctx context.Context, lessonID string) (Lesson, error) {
	l, ok, err := m.store.ByID(ctx, lessonID)
	if err != nil {
		return Lesson{}, err
	}
	if !ok {
		return Lesson{}, ErrNotFound
	}
	return l, nil
}

func (m *Manager) ownedBy(ctx context.Context, professorID, courseID string) error {
	owner, err := m.courses.Owner(ctx, courseID)
	if err != nil {
		return err
	}
	if owner != professorID {
		return course.ErrNotOwner
	}
	return nil
}
