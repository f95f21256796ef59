package lesson

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rollcall/internal/course"
)

// memStore keeps lessons in memory while enforcing the same two uniqueness
// rules the Postgres partial indexes carry.
type memStore struct {
	mu   sync.Mutex
	byID map[string]Lesson
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]Lesson)}
}

func (s *memStore) InsertActive(_ context.Context, l Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if !existing.Active() {
			continue
		}
		if existing.CourseID == l.CourseID {
			return ErrAlreadyActive
		}
		if existing.Code == l.Code {
			return ErrCodeInUse
		}
	}
	s.byID[l.ID] = l
	return nil
}

func (s *memStore) Terminate(_ context.Context, courseID string, endedAt time.Time) (Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.byID {
		if l.CourseID == courseID && l.Active() {
			t := endedAt
			l.EndedAt = &t
			s.byID[id] = l
			return l, nil
		}
	}
	return Lesson{}, ErrNoActiveLesson
}

func (s *memStore) Active(_ context.Context, courseID string) (Lesson, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.byID {
		if l.CourseID == courseID && l.Active() {
			return l, true, nil
		}
	}
	return Lesson{}, false, nil
}

func (s *memStore) ActiveByCode(_ context.Context, code string) (Lesson, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.byID {
		if l.Code == code && l.Active() {
			return l, true, nil
		}
	}
	return Lesson{}, false, nil
}

func (s *memStore) ActiveCodes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for _, l := range s.byID {
		if l.Active() {
			codes = append(codes, l.Code)
		}
	}
	return codes, nil
}

func (s *memStore) ByCourse(_ context.Context, courseID string) ([]Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Lesson
	for _, l := range s.byID {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) ByID(_ context.Context, lessonID string) (Lesson, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[lessonID]
	return l, ok, nil
}

// memCourses maps course ids to owning professors.
type memCourses map[string]string

func (m memCourses) Owner(_ context.Context, courseID string) (string, error) {
	owner, ok := m[courseID]
	if !ok {
		return "", course.ErrNotFound
	}
	return owner, nil
}

func newTestManager(courses memCourses) (*Manager, *memStore) {
	st := newMemStore()
	return NewManager(st, courses, NewCodeGenerator(6, 20)), st
}

func TestStart_OpensLessonWithCode(t *testing.T) {
	m, _ := newTestManager(memCourses{"cs101": "prof-1"})

	l, err := m.Start(context.Background(), "prof-1", "cs101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Active() {
		t.Error("new lesson must be active")
	}
	if len(l.Code) != 6 {
		t.Errorf("expected 6 digit code, got %q", l.Code)
	}
	if l.StartedAt.IsZero() {
		t.Error("start timestamp must be set")
	}

	got, err := m.ByCode(context.Background(), l.Code)
	if err != nil {
		t.Fatalf("code lookup failed: %v", err)
	}
	if got.ID != l.ID {
		t.Errorf("code resolved to lesson %s, want %s", got.ID, l.ID)
	}
}

func TestStart_UnknownCourse(t *testing.T) {
	m, _ := newTestManager(memCourses{})

	_, err := m.Start(context.Background(), "prof-1", "missing")
	if !errors.Is(err, course.ErrNotFound) {
		t.Errorf("expected course.ErrNotFound, got %v", err)
	}
}

func TestStart_NotOwningProfessor(t *testing.T) {
	m, _ := newTestManager(memCourses{"cs101": "prof-1"})

	_, err := m.Start(context.Background(), "prof-2", "cs101")
	if !errors.Is(err, course.ErrNotOwner) {
		t.Errorf("expected course.ErrNotOwner, got %v", err)
	}
}

func TestStart_SecondWhileActiveFails(t *testing.T) {
	m, _ := newTestManager(memCourses{"cs101": "prof-1"})

	if _, err := m.Start(context.Background(), "prof-1", "cs101"); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	_, err := m.Start(context.Background(), "prof-1", "cs101")
	if !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestStart_ConcurrentAttemptsExactlyOneWins(t *testing.T) {
	m, st := newTestManager(memCourses{"cs101": "prof-1"})

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Start(context.Background(), "prof-1", "cs101")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyActive):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one start to succeed, got %d", succeeded)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
	if got := len(st.byID); got != 1 {
		t.Errorf("expected a single lesson row, got %d", got)
	}
}

func TestTerminate_SetsEndTimestampAndFreesCode(t *testing.T) {
	m, _ := newTestManager(memCourses{"cs101": "prof-1"})

	started, err := m.Start(context.Background(), "prof-1", "cs101")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	terminated, err := m.Terminate(context.Background(), "prof-1", "cs101")
	if err != nil {
		t.Fatalf("terminate failed: %v", err)
	}
	if terminated.EndedAt == nil {
		t.Fatal("end timestamp must be set")
	}
	if terminated.Active() {
		t.Error("terminated lesson must not report active")
	}

	if _, err := m.ByCode(context.Background(), started.Code); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode for terminated lesson's code, got %v", err)
	}

	// The course can open a new lesson now; the old code is free again.
	if _, err := m.Start(context.Background(), "prof-1", "cs101"); err != nil {
		t.Errorf("restart after termination failed: %v", err)
	}
}

func TestTerminate_NoActiveLesson(t *testing.T) {
	m, _ := newTestManager(memCourses{"cs101": "prof-1"})

	_, err := m.Terminate(context.Background(), "prof-1", "cs101")
	if !errors.Is(err, ErrNoActiveLesson) {
		t.Errorf("expected ErrNoActiveLesson, got %v", err)
	}
}

func TestStart_RerollsWhenCodesAreTaken(t *testing.T) {
	// Single-digit codes with nine of the ten values held by other
	// courses' active lessons: the manager must land on the free one.
	courses := memCourses{"target": "prof-1"}
	st := newMemStore()
	for i := 0; i < 9; i++ {
		id := string(rune('a' + i))
		courses["course-"+id] = "prof-1"
		st.byID["lesson-"+id] = Lesson{
			ID:        "lesson-" + id,
			CourseID:  "course-" + id,
			Code:      string(codeAlphabet[i]),
			StartedAt: time.Now(),
		}
	}
	m := NewManager(st, courses, NewCodeGenerator(1, 500))

	l, err := m.Start(context.Background(), "prof-1", "target")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if l.Code != "9" {
		t.Errorf("expected the only free code %q, got %q", "9", l.Code)
	}
}

func TestActiveCodes_UniqueAmongActiveLessons(t *testing.T) {
	courses := memCourses{}
	st := newMemStore()
	for i := 0; i < 8; i++ {
		courses[string(rune('a'+i))] = "prof-1"
	}
	m := NewManager(st, courses, NewCodeGenerator(2, 200))

	for id := range courses {
		if _, err := m.Start(context.Background(), "prof-1", id); err != nil {
			t.Fatalf("start for %s failed: %v", id, err)
		}
	}

	codes, err := st.ActiveCodes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("code %q bound to two active lessons", c)
		}
		seen[c] = true
	}
}

func TestListForCourse_OwnerOnly(t *testing.T) {
	m, _ := newTestManager(memCourses{"cs101": "prof-1"})

	if _, err := m.Start(context.Background(), "prof-1", "cs101"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := m.ListForCourse(context.Background(), "prof-2", "cs101"); !errors.Is(err, course.ErrNotOwner) {
		t.Errorf("expected course.ErrNotOwner, got %v", err)
	}

	lessons, err := m.ListForCourse(context.Background(), "prof-1", "cs101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lessons) != 1 {
		t.Errorf("expected one lesson, got %d", len(lessons))
	}
}
