package course

import (
	"context"
	"database/sql"
	"errors"

	"rollcall/internal/store"
)

// Repository persists courses and subscriptions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new course. The per-professor name uniqueness lives on
// the courses_professor_name_key constraint.
func (r *Repository) Insert(ctx context.Context, c Course) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id, professor_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.ProfessorID, c.Name, c.Description, c.CreatedAt)
	if store.IsUniqueViolation(err, "courses_professor_name_key") {
		return ErrAlreadyExists
	}
	return store.MapError(err)
}

// Update rewrites name and description.
func (r *Repository) Update(ctx context.Context, c Course) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses SET name = $2, description = $3 WHERE id = $1
	`, c.ID, c.Name, c.Description)
	if store.IsUniqueViolation(err, "courses_professor_name_key") {
		return ErrAlreadyExists
	}
	if err != nil {
		return store.MapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the course unless it has a lesson without an end
// timestamp. The guard sits in the statement itself so a lesson started
// concurrently cannot slip past a separate existence check.
func (r *Repository) Delete(ctx context.Context, courseID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM courses
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM lessons WHERE course_id = $1 AND ended_at IS NULL
		  )
	`, courseID)
	if err != nil {
		return store.MapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
			return store.MapError(err)
		}
		if exists {
			return ErrHasActiveLesson
		}
		return ErrNotFound
	}
	return nil
}

// ByID returns a course.
func (r *Repository) ByID(ctx context.Context, courseID string) (Course, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, professor_id, name, description, created_at
		FROM courses WHERE id = $1
	`, courseID)
	var c Course
	if err := row.Scan(&c.ID, &c.ProfessorID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, false, nil
		}
		return Course{}, false, store.MapError(err)
	}
	return c, true, nil
}

// ByProfessor lists a professor's courses.
func (r *Repository) ByProfessor(ctx context.Context, professorID string) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, professor_id, name, description, created_at
		FROM courses WHERE professor_id = $1
		ORDER BY name
	`, professorID)
	if err != nil {
		return nil, store.MapError(err)
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.ProfessorID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddSubscription enrolls a student, ignoring repeats.
func (r *Repository) AddSubscription(ctx context.Context, courseID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (course_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, student_id) DO NOTHING
	`, courseID, studentID)
	if store.IsForeignKeyViolation(err, "subscriptions_student_id_fkey") {
		return ErrStudentNotFound
	}
	return store.MapError(err)
}

// RemoveSubscription drops an enrollment if present.
func (r *Repository) RemoveSubscription(ctx context.Context, courseID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE course_id = $1 AND student_id = $2
	`, courseID, studentID)
	return store.MapError(err)
}

// Subscribers lists enrolled students ordered by name.
func (r *Repository) Subscribers(ctx context.Context, courseID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.email
		FROM subscriptions sub
		JOIN students s ON s.id = sub.student_id
		WHERE sub.course_id = $1
		ORDER BY s.name
	`, courseID)
	if err != nil {
		return nil, store.MapError(err)
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// IsSubscribed reports enrollment.
func (r *Repository) IsSubscribed(ctx context.Context, courseID, studentID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions WHERE course_id = $1 AND student_id = $2
		)
	`, courseID, studentID).Scan(&ok)
	return ok, store.MapError(err)
}
