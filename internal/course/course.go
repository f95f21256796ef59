package course

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Course groups lessons under an owning professor. Names are unique per
// professor, not globally.
type Course struct {
	ID          string
	ProfessorID string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Student as seen by the registry: identity plus profile attributes.
type Student struct {
	ID    string
	Name  string
	Email string
}

var (
	ErrNotFound        = errors.New("course not found")
	ErrAlreadyExists   = errors.New("course already exists")
	ErrHasActiveLesson = errors.New("course has an active lesson")
	ErrNotOwner        = errors.New("requester does not own the course")
	ErrStudentNotFound = errors.New("student not found")
)

// Store is the persistence surface the registry needs. The Postgres
// implementation maps unique and foreign-key violations to the sentinel
// errors above.
type Store interface {
	Insert(ctx context.Context, c Course) error
	Update(ctx context.Context, c Course) error
	Delete(ctx context.Context, courseID string) error
	ByID(ctx context.Context, courseID string) (Course, bool, error)
	ByProfessor(ctx context.Context, professorID string) ([]Course, error)
	AddSubscription(ctx context.Context, courseID, studentID string) error
	RemoveSubscription(ctx context.Context, courseID, studentID string) error
	Subscribers(ctx context.Context, courseID string) ([]Student, error)
	IsSubscribed(ctx context.Context, courseID, studentID string) (bool, error)
}

// Registry owns courses and their subscription edges.
type Registry struct {
	store Store
}

// NewRegistry creates a registry backed by a store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Create registers a new course for the professor. Fails with
// ErrAlreadyExists when the professor already has a course of that name.
func (r *Registry) Create(ctx context.Context, professorID, name, description string) (Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Course{}, errors.New("course name required")
	}
	c := Course{
		ID:          uuid.NewString(),
		ProfessorID: professorID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// Edit renames or re-describes a course owned by the professor. Renaming to
// a name the professor already uses fails with ErrAlreadyExists.
func (r *Registry) Edit(ctx context.Context, professorID, courseID, newName, newDescription string) (Course, error) {
	c, err := r.owned(ctx, professorID, courseID)
	if err != nil {
		return Course{}, err
	}
	if newName = strings.TrimSpace(newName); newName != "" {
		c.Name = newName
	}
	c.Description = newDescription
	if err := r.store.Update(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// Delete removes a course owned by the professor. A course with an active
// lesson cannot be deleted; terminated-lesson history goes with the course.
func (r *Registry) Delete(ctx context.Context, professorID, courseID string) error {
	if _, err := r.owned(ctx, professorID, courseID); err != nil {
		return err
	}
	return r.store.Delete(ctx, courseID)
}

// Get returns a course by id.
func (r *Registry) Get(ctx context.Context, courseID string) (Course, error) {
	c, ok, err := r.store.ByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

// Owner returns the professor owning the course.
func (r *Registry) Owner(ctx context.Context, courseID string) (string, error) {
	c, err := r.Get(ctx, courseID)
	if err != nil {
		return "", err
	}
	return c.ProfessorID, nil
}

// ListByProfessor returns all courses owned by the professor.
func (r *Registry) ListByProfessor(ctx context.Context, professorID string) ([]Course, error) {
	return r.store.ByProfessor(ctx, professorID)
}

// Subscribe enrolls the student in the course. Subscribing twice is a no-op.
func (r *Registry) Subscribe(ctx context.Context, courseID, studentID string) error {
	if _, err := r.Get(ctx, courseID); err != nil {
		return err
	}
	return r.store.AddSubscription(ctx, courseID, studentID)
}

// Unsubscribe removes the student's enrollment. Removing a missing
// enrollment is a no-op.
func (r *Registry) Unsubscribe(ctx context.Context, courseID, studentID string) error {
	if _, err := r.Get(ctx, courseID); err != nil {
		return err
	}
	return r.store.RemoveSubscription(ctx, courseID, studentID)
}

// Subscribers lists students enrolled in the course.
func (r *Registry) Subscribers(ctx context.Context, courseID string) ([]Student, error) {
	if _, err := r.Get(ctx, courseID); err != nil {
		return nil, err
	}
	return r.store.Subscribers(ctx, courseID)
}

// IsSubscribed reports whether the student is enrolled in the course.
func (r *Registry) IsSubscribed(ctx context.Context, courseID, studentID string) (bool, error) {
	return r.store.IsSubscribed(ctx, courseID, studentID)
}

func (r *Registry) owned(ctx context.Context, professorID, courseID string) (Course, error) {
	c, err := r.Get(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if c.ProfessorID != professorID {
		return Course{}, ErrNotOwner
	}
	return c, nil
}
