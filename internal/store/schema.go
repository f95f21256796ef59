package store

import "context"

// schema is applied at boot with IF NOT EXISTS so restarts are harmless.
//
// Two partial unique indexes carry the lesson invariants: a course has at
// most one lesson without an end timestamp, and among those open lessons no
// two share a code. Attendance uniqueness per (lesson, student) is the
// primary key, so duplicate check-ins are rejected at the constraint level
// rather than by a read-then-write in the application.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS professors (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id           UUID PRIMARY KEY,
		professor_id UUID NOT NULL REFERENCES professors(id),
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT courses_professor_name_key UNIQUE (professor_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		course_id  UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		student_id UUID NOT NULL REFERENCES students(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (course_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id         UUID PRIMARY KEY,
		course_id  UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		code       TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at   TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS lessons_one_active_per_course
		ON lessons (course_id) WHERE ended_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS lessons_active_code
		ON lessons (code) WHERE ended_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS attendance (
		lesson_id     UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		student_id    UUID NOT NULL REFERENCES students(id),
		checked_in_at TIMESTAMPTZ NOT NULL,
		confirmed     BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (lesson_id, student_id)
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
