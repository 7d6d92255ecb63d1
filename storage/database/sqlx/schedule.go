package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core/schedule"
)

type entryRow struct {
	ID                  string       `db:"id"`
	DepartmentID        string       `db:"department_id"`
	TeacherID           string       `db:"teacher_id"`
	SubstituteTeacherID string       `db:"substitute_teacher_id"`
	Semester            string       `db:"semester"`
	Subject             string       `db:"subject"`
	Day                 string       `db:"day_of_week"`
	StartMin            int          `db:"start_min"`
	EndMin              int          `db:"end_min"`
	Room                string       `db:"room"`
	CourseCode          string       `db:"course_code"`
	Credits             int          `db:"credits"`
	AcademicYear        string       `db:"academic_year"`
	Section             string       `db:"section"`
	SessionType         string       `db:"session_type"`
	Status              string       `db:"status"`
	SubstituteReason    string       `db:"substitute_reason"`
	SubstitutionDate    sql.NullTime `db:"substitution_date"`
	IsSubstituted       bool         `db:"is_substituted"`
	NotificationSent    bool         `db:"notification_sent"`
	CreatedAt           time.Time    `db:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
}

func newEntryRow(e schedule.Entry) entryRow {
	row := entryRow{
		ID:                  e.ID,
		DepartmentID:        e.DepartmentID,
		TeacherID:           e.TeacherID,
		SubstituteTeacherID: e.SubstituteTeacherID,
		Semester:            e.Semester,
		Subject:             e.Subject,
		Day:                 string(e.Day),
		StartMin:            int(e.Interval.Start),
		EndMin:              int(e.Interval.End),
		Room:                e.Room,
		CourseCode:          e.CourseCode,
		Credits:             e.Credits,
		AcademicYear:        e.AcademicYear,
		Section:             e.Section,
		SessionType:         e.SessionType,
		Status:              string(e.Status),
		SubstituteReason:    e.SubstituteReason,
		IsSubstituted:       e.IsSubstituted,
		NotificationSent:    e.NotificationSent,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
	if e.SubstitutionDate != nil {
		row.SubstitutionDate = sql.NullTime{Time: *e.SubstitutionDate, Valid: true}
	}
	return row
}

func (row entryRow) entry() schedule.Entry {
	e := schedule.Entry{
		ID:                  row.ID,
		DepartmentID:        row.DepartmentID,
		TeacherID:           row.TeacherID,
		SubstituteTeacherID: row.SubstituteTeacherID,
		Semester:            row.Semester,
		Subject:             row.Subject,
		Day:                 schedule.Day(row.Day),
		Interval:            schedule.Interval{Start: schedule.Clock(row.StartMin), End: schedule.Clock(row.EndMin)},
		Room:                row.Room,
		CourseCode:          row.CourseCode,
		Credits:             row.Credits,
		AcademicYear:        row.AcademicYear,
		Section:             row.Section,
		SessionType:         row.SessionType,
		Status:              schedule.Status(row.Status),
		SubstituteReason:    row.SubstituteReason,
		IsSubstituted:       row.IsSubstituted,
		NotificationSent:    row.NotificationSent,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.SubstitutionDate.Valid {
		t := row.SubstitutionDate.Time
		e.SubstitutionDate = &t
	}
	return e
}

type entryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) schedule.Repository {
	return &entryRepository{db: db}
}

func (repo *entryRepository) CreateEntry(e schedule.Entry) (schedule.Entry, error) {
	const query = `
		INSERT INTO timetable_entry (
			id, department_id, teacher_id, substitute_teacher_id, semester, subject,
			day_of_week, start_min, end_min, room, course_code, credits,
			academic_year, section, session_type, status, substitute_reason,
			substitution_date, is_substituted, notification_sent, created_at, updated_at
		) VALUES (
			:id, :department_id, :teacher_id, :substitute_teacher_id, :semester, :subject,
			:day_of_week, :start_min, :end_min, :room, :course_code, :credits,
			:academic_year, :section, :session_type, :status, :substitute_reason,
			:substitution_date, :is_substituted, :notification_sent, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExec(query, newEntryRow(e)); err != nil {
		return schedule.Entry{}, err
	}
	return e, nil
}

func (repo *entryRepository) GetEntryByID(id string) (schedule.Entry, error) {
	var row entryRow
	if err := repo.db.Get(&row, `SELECT * FROM timetable_entry WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Entry{}, schedule.ErrEntryNotFound
		}
		return schedule.Entry{}, err
	}
	return row.entry(), nil
}

func (repo *entryRepository) QueryAllEntries() ([]schedule.Entry, error) {
	var rows []entryRow
	if err := repo.db.Select(&rows, `SELECT * FROM timetable_entry ORDER BY created_at`); err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func (repo *entryRepository) FilterEntries(filter schedule.QueryFilter) ([]schedule.Entry, error) {
	query := `SELECT * FROM timetable_entry WHERE 1=1`
	args := make([]interface{}, 0, 8)

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		query += clause
	}
	if filter.DepartmentID != "" {
		add(` AND department_id = $`+itoa(len(args)+1), filter.DepartmentID)
	}
	if filter.TeacherID != "" {
		add(` AND teacher_id = $`+itoa(len(args)+1), filter.TeacherID)
	}
	if filter.SubstituteTeacherID != "" {
		add(` AND substitute_teacher_id = $`+itoa(len(args)+1), filter.SubstituteTeacherID)
	}
	if filter.Day != "" {
		add(` AND day_of_week = $`+itoa(len(args)+1), filter.Day)
	}
	if filter.Semester != "" {
		add(` AND semester = $`+itoa(len(args)+1), filter.Semester)
	}
	if filter.AcademicYear != "" {
		add(` AND academic_year = $`+itoa(len(args)+1), filter.AcademicYear)
	}
	if filter.Status != "" {
		add(` AND status = $`+itoa(len(args)+1), filter.Status)
	}
	if filter.Section != "" {
		add(` AND section = $`+itoa(len(args)+1), filter.Section)
	}
	if filter.Substituted != nil {
		add(` AND is_substituted = $`+itoa(len(args)+1), *filter.Substituted)
	}
	query += ` ORDER BY created_at`

	var rows []entryRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func (repo *entryRepository) UpdateEntry(e schedule.Entry) (schedule.Entry, error) {
	const query = `
		UPDATE timetable_entry SET
			department_id = :department_id, teacher_id = :teacher_id,
			substitute_teacher_id = :substitute_teacher_id, semester = :semester,
			subject = :subject, day_of_week = :day_of_week, start_min = :start_min,
			end_min = :end_min, room = :room, course_code = :course_code,
			credits = :credits, academic_year = :academic_year, section = :section,
			session_type = :session_type, status = :status,
			substitute_reason = :substitute_reason, substitution_date = :substitution_date,
			is_substituted = :is_substituted, notification_sent = :notification_sent,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExec(query, newEntryRow(e))
	if err != nil {
		return schedule.Entry{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Entry{}, schedule.ErrEntryNotFound
	}
	return e, nil
}

func (repo *entryRepository) DeleteEntryByID(id string) error {
	res, err := repo.db.Exec(`DELETE FROM timetable_entry WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrEntryNotFound
	}
	return nil
}

func (repo *entryRepository) FindOccupiedByTeacher(teacherID string, day schedule.Day) ([]schedule.Entry, error) {
	var rows []entryRow
	const query = `
		SELECT * FROM timetable_entry
		WHERE teacher_id = $1 AND day_of_week = $2 AND status IN ('ACTIVE', 'SUBSTITUTED')`
	if err := repo.db.Select(&rows, query, teacherID, string(day)); err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func (repo *entryRepository) FindOccupiedByRoom(room string, day schedule.Day) ([]schedule.Entry, error) {
	var rows []entryRow
	const query = `
		SELECT * FROM timetable_entry
		WHERE room = $1 AND day_of_week = $2 AND status IN ('ACTIVE', 'SUBSTITUTED')`
	if err := repo.db.Select(&rows, query, room, string(day)); err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func entries(rows []entryRow) []schedule.Entry {
	out := make([]schedule.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry())
	}
	return out
}
