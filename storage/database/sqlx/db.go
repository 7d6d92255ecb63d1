package sqlxrepos

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/trezcool/ratiba/core"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(conf core.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		conf.Host, conf.Port, conf.Name, conf.User, conf.Password, conf.SSLMode,
	)
	return sqlx.Connect("postgres", dsn)
}

const schema = `
CREATE TABLE IF NOT EXISTS timetable_entry (
	id                    uuid PRIMARY KEY,
	department_id         text        NOT NULL,
	teacher_id            text        NOT NULL,
	substitute_teacher_id text        NOT NULL DEFAULT '',
	semester              text        NOT NULL DEFAULT '',
	subject               text        NOT NULL DEFAULT '',
	day_of_week           text        NOT NULL,
	start_min             int         NOT NULL,
	end_min               int         NOT NULL,
	room                  text        NOT NULL,
	course_code           text        NOT NULL DEFAULT '',
	credits               int         NOT NULL DEFAULT 0,
	academic_year         text        NOT NULL DEFAULT '',
	section               text        NOT NULL DEFAULT '',
	session_type          text        NOT NULL DEFAULT '',
	status                text        NOT NULL DEFAULT 'ACTIVE',
	substitute_reason     text        NOT NULL DEFAULT '',
	substitution_date     timestamptz,
	is_substituted        boolean     NOT NULL DEFAULT false,
	notification_sent     boolean     NOT NULL DEFAULT false,
	created_at            timestamptz NOT NULL,
	updated_at            timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS timetable_entry_teacher_day_idx ON timetable_entry (teacher_id, day_of_week);
CREATE INDEX IF NOT EXISTS timetable_entry_room_day_idx ON timetable_entry (room, day_of_week);

CREATE TABLE IF NOT EXISTS substitute_request (
	id                    uuid PRIMARY KEY,
	original_teacher_id   text        NOT NULL,
	substitute_teacher_id text        NOT NULL,
	timetable_id          uuid        NOT NULL,
	reason                text        NOT NULL DEFAULT '',
	request_date          timestamptz NOT NULL,
	substitute_date       timestamptz NOT NULL,
	status                text        NOT NULL DEFAULT 'PENDING',
	approved_by           text        NOT NULL DEFAULT '',
	comments              text        NOT NULL DEFAULT '',
	created_at            timestamptz NOT NULL,
	updated_at            timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS notification (
	id             uuid PRIMARY KEY,
	title          text        NOT NULL,
	message        text        NOT NULL,
	kind           text        NOT NULL,
	priority       text        NOT NULL,
	recipient_ids  text[]      NOT NULL DEFAULT '{}',
	recipient_type text        NOT NULL,
	timetable_id   text        NOT NULL DEFAULT '',
	department_id  text        NOT NULL DEFAULT '',
	created_at     timestamptz NOT NULL,
	scheduled_at   timestamptz NOT NULL,
	sent           boolean     NOT NULL DEFAULT false,
	is_read        boolean     NOT NULL DEFAULT false,
	status         text        NOT NULL DEFAULT 'PENDING'
);

CREATE INDEX IF NOT EXISTS notification_pending_idx ON notification (scheduled_at) WHERE NOT sent AND status = 'PENDING';

CREATE TABLE IF NOT EXISTS notification_log (
	id              uuid PRIMARY KEY,
	notification_id uuid        NOT NULL,
	recipient_ids   text[]      NOT NULL DEFAULT '{}',
	message         text        NOT NULL,
	channel         text        NOT NULL,
	sent_at         timestamptz NOT NULL,
	success         boolean     NOT NULL,
	error_message   text        NOT NULL DEFAULT ''
);
`

// Migrate applies the idempotent schema.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

func itoa(i int) string { return strconv.Itoa(i) }
