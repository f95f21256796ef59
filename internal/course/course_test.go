package course

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// memStore enforces the per-professor name uniqueness and the
// active-lesson delete guard the Postgres repo gets from constraints.
type memStore struct {
	mu           sync.Mutex
	courses      map[string]Course
	subs         map[string]map[string]bool
	students     map[string]Student
	activeLesson map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		courses:      make(map[string]Course),
		subs:         make(map[string]map[string]bool),
		students:     make(map[string]Student),
		activeLesson: make(map[string]bool),
	}
}

func (s *memStore) nameTaken(c Course) bool {
	for _, existing := range s.courses {
		if existing.ID != c.ID && existing.ProfessorID == c.ProfessorID && existing.Name == c.Name {
			return true
		}
	}
	return false
}

func (s *memStore) Insert(_ context.Context, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c) {
		return ErrAlreadyExists
	}
	s.courses[c.ID] = c
	s.subs[c.ID] = make(map[string]bool)
	return nil
}

func (s *memStore) Update(_ context.Context, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[c.ID]; !ok {
		return ErrNotFound
	}
	if s.nameTaken(c) {
		return ErrAlreadyExists
	}
	s.courses[c.ID] = c
	return nil
}

func (s *memStore) Delete(_ context.Context, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[courseID]; !ok {
		return ErrNotFound
	}
	if s.activeLesson[courseID] {
		return ErrHasActiveLesson
	}
	delete(s.courses, courseID)
	delete(s.subs, courseID)
	return nil
}

func (s *memStore) ByID(_ context.Context, courseID string) (Course, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	return c, ok, nil
}

func (s *memStore) ByProfessor(_ context.Context, professorID string) ([]Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Course
	for _, c := range s.courses {
		if c.ProfessorID == professorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) AddSubscription(_ context.Context, courseID, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return ErrStudentNotFound
	}
	s.subs[courseID][studentID] = true
	return nil
}

func (s *memStore) RemoveSubscription(_ context.Context, courseID, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[courseID], studentID)
	return nil
}

func (s *memStore) Subscribers(_ context.Context, courseID string) ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Student
	for id := range s.subs[courseID] {
		out = append(out, s.students[id])
	}
	return out, nil
}

func (s *memStore) IsSubscribed(_ context.Context, courseID, studentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[courseID][studentID], nil
}

func newTestRegistry() (*Registry, *memStore) {
	st := newMemStore()
	st.students["student-a"] = Student{ID: "student-a", Name: "Ada", Email: "ada@example.edu"}
	return NewRegistry(st), st
}

func TestCreate_DuplicateNamePerProfessor(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	if _, err := r.Create(ctx, "prof-1", "CS101", "intro"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := r.Create(ctx, "prof-1", "CS101", "again")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Same name under a different professor is fine; uniqueness is scoped
	// per owner.
	if _, err := r.Create(ctx, "prof-2", "CS101", "other section"); err != nil {
		t.Errorf("create for second professor failed: %v", err)
	}
}

func TestEdit_RenameToTakenNameFails(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	if _, err := r.Create(ctx, "prof-1", "CS101", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := r.Create(ctx, "prof-1", "CS102", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := r.Edit(ctx, "prof-1", second.ID, "CS101", ""); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestEdit_OnlyOwnerMayEdit(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	c, err := r.Create(ctx, "prof-1", "CS101", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := r.Edit(ctx, "prof-2", c.ID, "Hijacked", ""); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestDelete_BlockedByActiveLesson(t *testing.T) {
	r, st := newTestRegistry()
	ctx := context.Background()

	c, err := r.Create(ctx, "prof-1", "CS101", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	st.activeLesson[c.ID] = true

	if err := r.Delete(ctx, "prof-1", c.ID); !errors.Is(err, ErrHasActiveLesson) {
		t.Errorf("expected ErrHasActiveLesson, got %v", err)
	}

	st.activeLesson[c.ID] = false
	if err := r.Delete(ctx, "prof-1", c.ID); err != nil {
		t.Errorf("delete after termination failed: %v", err)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	c, err := r.Create(ctx, "prof-1", "CS101", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := r.Subscribe(ctx, c.ID, "student-a"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	ok, err := r.IsSubscribed(ctx, c.ID, "student-a")
	if err != nil || !ok {
		t.Fatalf("expected subscribed, got %v / %v", ok, err)
	}

	subs, err := r.Subscribers(ctx, c.ID)
	if err != nil {
		t.Fatalf("subscribers failed: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "student-a" {
		t.Errorf("expected [student-a], got %+v", subs)
	}

	if err := r.Unsubscribe(ctx, c.ID, "student-a"); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	ok, _ = r.IsSubscribed(ctx, c.ID, "student-a")
	if ok {
		t.Error("expected unsubscribed")
	}
}

func TestSubscribe_UnknownStudent(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	c, err := r.Create(ctx, "prof-1", "CS101", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := r.Subscribe(ctx, c.ID, "ghost"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestSubscribe_UnknownCourse(t *testing.T) {
	r, _ := newTestRegistry()

	if err := r.Subscribe(context.Background(), "missing", "student-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
