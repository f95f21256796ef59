package attendance

import (
	"context"
	"database/sql"
	"errors"

	"rollcall/internal/course"
	"rollcall/internal/store"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertOnce writes the record unless the (lesson, student) pair already
// has one, in which case the stored record is returned untouched. The
// primary key makes the insert a compare-and-insert, so two simultaneous
// check-ins from the same student cannot both create a row.
func (r *Repository) InsertOnce(ctx context.Context, rec Record) (Record, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (lesson_id, student_id, checked_in_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (lesson_id, student_id) DO NOTHING
		RETURNING checked_in_at, confirmed
	`, rec.LessonID, rec.StudentID, rec.CheckedInAt)
	err := row.Scan(&rec.CheckedInAt, &rec.Confirmed)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, store.MapError(err)
	}

	// Conflict: fetch the original record.
	row = r.db.QueryRowContext(ctx, `
		SELECT checked_in_at, confirmed FROM attendance
		WHERE lesson_id = $1 AND student_id = $2
	`, rec.LessonID, rec.StudentID)
	if err := row.Scan(&rec.CheckedInAt, &rec.Confirmed); err != nil {
		return Record{}, false, store.MapError(err)
	}
	return rec, false, nil
}

// CheckedIn lists students with a record for the lesson, any confirmation
// state.
func (r *Repository) CheckedIn(ctx context.Context, lessonID string) ([]course.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.email
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE a.lesson_id = $1
		ORDER BY s.name
	`, lessonID)
	if err != nil {
		return nil, store.MapError(err)
	}
	defer rows.Close()
	var out []course.Student
	for rows.Next() {
		var s course.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceConfirmed applies the full-replace confirmation semantics in one
// statement, so a concurrent check-in is either untouched (lands
// unconfirmed after the update) or swept by it, never half-applied.
func (r *Repository) ReplaceConfirmed(ctx context.Context, lessonID string, studentIDs []string) error {
	if studentIDs == nil {
		studentIDs = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET confirmed = (student_id = ANY($2))
		WHERE lesson_id = $1
	`, lessonID, studentIDs)
	return store.MapError(err)
}

// ConfirmedByCourse lists confirmed records across the course's lessons.
func (r *Repository) ConfirmedByCourse(ctx context.Context, courseID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.lesson_id, a.student_id, a.checked_in_at, a.confirmed
		FROM attendance a
		JOIN lessons l ON l.id = a.lesson_id
		WHERE l.course_id = $1 AND a.confirmed
		ORDER BY a.checked_in_at
	`, courseID)
	if err != nil {
		return nil, store.MapError(err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.LessonID, &rec.StudentID, &rec.CheckedInAt, &rec.Confirmed); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
