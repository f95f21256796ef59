package lesson

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rollcall/internal/store"
)

// Repository persists lessons in Postgres. The partial unique indexes
// lessons_one_active_per_course and lessons_active_code make InsertActive a
// compare-and-insert: whichever invariant a concurrent insert would break
// surfaces as a constraint violation here.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertActive writes a new active lesson.
func (r *Repository) InsertActive(ctx context.Context, l Lesson) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lessons (id, course_id, code, started_at)
		VALUES ($1, $2, $3, $4)
	`, l.ID, l.CourseID, l.Code, l.StartedAt)
	switch {
	case store.IsUniqueViolation(err, "lessons_one_active_per_course"):
		return ErrAlreadyActive
	case store.IsUniqueViolation(err, "lessons_active_code"):
		return ErrCodeInUse
	}
	return store.MapError(err)
}

// Terminate sets the end timestamp on the course's active lesson and
// returns it. The single UPDATE keeps the transition atomic with respect
// to concurrent starts and terminations.
func (r *Repository) Terminate(ctx context.Context, courseID string, endedAt time.Time) (Lesson, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE lessons SET ended_at = $2
		WHERE course_id = $1 AND ended_at IS NULL
		RETURNING id, course_id, code, started_at, ended_at
	`, courseID, endedAt)
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, ErrNoActiveLesson
	}
	if err != nil {
		return Lesson{}, store.MapError(err)
	}
	return l, nil
}

// Active returns the course's running lesson.
func (r *Repository) Active(ctx context.Context, courseID string) (Lesson, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, code, started_at, ended_at
		FROM lessons WHERE course_id = $1 AND ended_at IS NULL
	`, courseID)
	return maybeLesson(row)
}

// ActiveByCode resolves a code against active lessons only.
func (r *Repository) ActiveByCode(ctx context.Context, code string) (Lesson, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, code, started_at, ended_at
		FROM lessons WHERE code = $1 AND ended_at IS NULL
	`, code)
	return maybeLesson(row)
}

// ActiveCodes returns every code currently bound to an active lesson.
func (r *Repository) ActiveCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code FROM lessons WHERE ended_at IS NULL`)
	if err != nil {
		return nil, store.MapError(err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// ByCourse lists a course's lessons, newest first.
func (r *Repository) ByCourse(ctx context.Context, courseID string) ([]Lesson, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, code, started_at, ended_at
		FROM lessons WHERE course_id = $1
		ORDER BY started_at DESC
	`, courseID)
	if err != nil {
		return nil, store.MapError(err)
	}
	defer rows.Close()
	var out []Lesson
	for rows.Next() {
		var (
			l     Lesson
			ended sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Code, &l.StartedAt, &ended); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			l.EndedAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ByID returns a lesson regardless of state.
func (r *Repository) ByID(ctx context.Context, lessonID string) (Lesson, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, code, started_at, ended_at
		FROM lessons WHERE id = $1
	`, lessonID)
	return maybeLesson(row)
}

func scanLesson(row *sql.Row) (Lesson, error) {
	var (
		l     Lesson
		ended sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.CourseID, &l.Code, &l.StartedAt, &ended); err != nil {
		return Lesson{}, err
	}
	if ended.Valid {
		t := ended.Time
		l.EndedAt = &t
	}
	return l, nil
}

func maybeLesson(row *sql.Row) (Lesson, bool, error) {
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, false, nil
	}
	if err != nil {
		return Lesson{}, false, store.MapError(err)
	}
	return l, true, nil
}
