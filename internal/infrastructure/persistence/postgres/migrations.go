package postgres

// Embedded schema migrations. Lessons are unique per calendar date among
// active rows only, so the uniqueness constraint is a partial index that
// skips soft-deleted lessons.

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_students",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_lessons",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_behavioral",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_deletion_log",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS parents (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	phone TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	preferred_contact TEXT NOT NULL DEFAULT 'WHATSAPP',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS students (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	parent_id TEXT NOT NULL REFERENCES parents(id),
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	archived_at TIMESTAMPTZ,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);
CREATE INDEX IF NOT EXISTS idx_students_archived_at ON students(archived_at) WHERE archived_at IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS parents;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS lessons (
	id TEXT PRIMARY KEY,
	lesson_date DATE NOT NULL,
	topics TEXT NOT NULL DEFAULT '',
	tags TEXT[] NOT NULL DEFAULT '{}',
	has_homework BOOLEAN NOT NULL DEFAULT FALSE,
	attendance_marked BOOLEAN NOT NULL DEFAULT FALSE,
	homework_marked BOOLEAN NOT NULL DEFAULT FALSE,
	participation_marked BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_lessons_active_date
	ON lessons(lesson_date) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_lessons_deleted_at
	ON lessons(deleted_at) WHERE deleted_at IS NOT NULL;

CREATE TABLE IF NOT EXISTS lesson_attendance (
	id TEXT PRIMARY KEY,
	lesson_id TEXT NOT NULL REFERENCES lessons(id),
	student_id TEXT NOT NULL REFERENCES students(id),
	attended BOOLEAN NOT NULL,
	consecutive_absences INTEGER NOT NULL DEFAULT 0,
	lesson_date DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE(lesson_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_attendance_student_date
	ON lesson_attendance(student_id, lesson_date);

CREATE TABLE IF NOT EXISTS lesson_homework (
	id TEXT PRIMARY KEY,
	lesson_id TEXT NOT NULL REFERENCES lessons(id),
	student_id TEXT NOT NULL REFERENCES students(id),
	completed BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE(lesson_id, student_id)
);

CREATE TABLE IF NOT EXISTS lesson_participation (
	id TEXT PRIMARY KEY,
	lesson_id TEXT NOT NULL REFERENCES lessons(id),
	student_id TEXT NOT NULL REFERENCES students(id),
	score INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE(lesson_id, student_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS lesson_participation;
DROP TABLE IF EXISTS lesson_homework;
DROP TABLE IF EXISTS lesson_attendance;
DROP TABLE IF EXISTS lessons;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS behavioral_incidents (
	id TEXT PRIMARY KEY,
	lesson_id TEXT NOT NULL REFERENCES lessons(id),
	student_id TEXT NOT NULL REFERENCES students(id),
	incident_type TEXT NOT NULL,
	talked_with TEXT[] NOT NULL DEFAULT '{}',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_incidents_student_created
	ON behavioral_incidents(student_id, created_at);
CREATE INDEX IF NOT EXISTS idx_incidents_lesson
	ON behavioral_incidents(lesson_id);
`

const migration003Down = `
DROP TABLE IF EXISTS behavioral_incidents;
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS deletion_log (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	student_name TEXT NOT NULL,
	deleted_by TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	deleted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deletion_log_deleted_at
	ON deletion_log(deleted_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS deletion_log;
`
