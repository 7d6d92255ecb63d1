package schedule

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

// Day of the week an entry repeats on.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
	Sunday    Day = "SUNDAY"
)

var weekdayDays = map[time.Weekday]Day{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayOf maps a concrete date to its repeating Day.
func DayOf(t time.Time) Day {
	return weekdayDays[t.Weekday()]
}

// Entry lifecycle status.
type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusInactive    Status = "INACTIVE"
	StatusCancelled   Status = "CANCELLED"
	StatusSubstituted Status = "SUBSTITUTED"
)

// Occupies reports whether an entry in this status holds its teacher/room
// slot for conflict purposes.
func (s Status) Occupies() bool {
	return s == StatusActive || s == StatusSubstituted
}

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %v", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open [Start, End) slot within a day.
type Interval struct {
	Start Clock `json:"start_time"`
	End   Clock `json:"end_time"`
}

// Overlaps is the half-open overlap test: [s1,e1) and [s2,e2) conflict
// iff s1 < e2 && s2 < e1. Adjacent intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// Entry is one scheduled class slot for a department/semester/section.
type Entry struct {
	ID                  string     `json:"id"`
	DepartmentID        string     `json:"department_id"`
	TeacherID           string     `json:"teacher_id"`
	SubstituteTeacherID string     `json:"substitute_teacher_id,omitempty"`
	Semester            string     `json:"semester"`
	Subject             string     `json:"subject"`
	Day                 Day        `json:"day_of_week"`
	Interval            Interval   `json:"interval"`
	Room                string     `json:"room"`
	CourseCode          string     `json:"course_code"`
	Credits             int        `json:"credits"`
	AcademicYear        string     `json:"academic_year"` // e.g. "2024-2025"
	Section             string     `json:"section"`       // A, B, C, etc.
	SessionType         string     `json:"session_type"`  // LECTURE, LAB, TUTORIAL
	Status              Status     `json:"status"`
	SubstituteReason    string     `json:"substitute_reason,omitempty"`
	SubstitutionDate    *time.Time `json:"substitution_date,omitempty"`
	IsSubstituted       bool       `json:"is_substituted"`
	NotificationSent    bool       `json:"notification_sent"`
	CreatedAt           time.Time  `json:"created_at"` // UTC
	UpdatedAt           time.Time  `json:"updated_at"` // UTC
}

// NewEntry contains information needed to create a new Entry.
type NewEntry struct {
	DepartmentID string `json:"department_id" validate:"required"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	Semester     string `json:"semester"`
	Subject      string `json:"subject" validate:"required"`
	Day          string `json:"day_of_week" validate:"required,dayofweek"`
	StartTime    string `json:"start_time" validate:"required,clocktime"`
	EndTime      string `json:"end_time" validate:"required,clocktime"`
	Room         string `json:"room" validate:"required"`
	CourseCode   string `json:"course_code"`
	Credits      int    `json:"credits" validate:"omitempty,min=0"`
	AcademicYear string `json:"academic_year"`
	Section      string `json:"section"`
	SessionType  string `json:"session_type" validate:"omitempty,oneof=LECTURE LAB TUTORIAL"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.DepartmentID = core.CleanString(ne.DepartmentID)
	ne.TeacherID = core.CleanString(ne.TeacherID)
	ne.Subject = core.CleanString(ne.Subject)
	ne.Room = core.CleanString(ne.Room)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	_, err := parseInterval(ne.StartTime, ne.EndTime)
	return err
}

// UpdateEntry defines what information may be provided to modify an existing
// Entry. All fields are applied; a change to teacher, day, interval or room is
// a significant change and re-triggers conflict checks.
type UpdateEntry struct {
	DepartmentID string `json:"department_id" validate:"required"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	Semester     string `json:"semester"`
	Subject      string `json:"subject" validate:"required"`
	Day          string `json:"day_of_week" validate:"required,dayofweek"`
	StartTime    string `json:"start_time" validate:"required,clocktime"`
	EndTime      string `json:"end_time" validate:"required,clocktime"`
	Room         string `json:"room" validate:"required"`
	CourseCode   string `json:"course_code"`
	Credits      int    `json:"credits" validate:"omitempty,min=0"`
	AcademicYear string `json:"academic_year"`
	Section      string `json:"section"`
	SessionType  string `json:"session_type" validate:"omitempty,oneof=LECTURE LAB TUTORIAL"`
	Status       string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE CANCELLED SUBSTITUTED"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	ue.DepartmentID = core.CleanString(ue.DepartmentID)
	ue.TeacherID = core.CleanString(ue.TeacherID)
	ue.Subject = core.CleanString(ue.Subject)
	ue.Room = core.CleanString(ue.Room)

	if err := validate.Struct(ue); err != nil {
		return err
	}
	_, err := parseInterval(ue.StartTime, ue.EndTime)
	return err
}

func parseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, core.NewValidationError(err, core.FieldError{Field: "start_time", Error: err.Error()})
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, core.NewValidationError(err, core.FieldError{Field: "end_time", Error: err.Error()})
	}
	if s >= e {
		return Interval{}, core.NewValidationError(
			errMalformedInterval,
			core.FieldError{Field: "end_time", Error: errMalformedInterval.Error()},
		)
	}
	return Interval{Start: s, End: e}, nil
}

// QueryFilter narrows entry listings. Zero-valued fields are ignored;
// non-zero fields apply with AND semantics.
type QueryFilter struct {
	DepartmentID        string `query:"department"`
	TeacherID           string `query:"teacher"`
	SubstituteTeacherID string `query:"substitute_teacher"`
	Day                 string `query:"day"`
	Semester            string `query:"semester"`
	AcademicYear        string `query:"academic_year"`
	Status              string `query:"status"`
	Section             string `query:"section"`
	Substituted         *bool  `query:"substituted"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.DepartmentID == "" && qf.TeacherID == "" && qf.SubstituteTeacherID == "" &&
		qf.Day == "" && qf.Semester == "" && qf.AcademicYear == "" &&
		qf.Status == "" && qf.Section == "" && qf.Substituted == nil
}

// Match reports whether an entry satisfies the filter.
func (qf *QueryFilter) Match(e Entry) bool {
	if qf.DepartmentID != "" && e.DepartmentID != qf.DepartmentID {
		return false
	}
	if qf.TeacherID != "" && e.TeacherID != qf.TeacherID {
		return false
	}
	if qf.SubstituteTeacherID != "" && e.SubstituteTeacherID != qf.SubstituteTeacherID {
		return false
	}
	if qf.Day != "" && e.Day != Day(qf.Day) {
		return false
	}
	if qf.Semester != "" && e.Semester != qf.Semester {
		return false
	}
	if qf.AcademicYear != "" && e.AcademicYear != qf.AcademicYear {
		return false
	}
	if qf.Status != "" && e.Status != Status(qf.Status) {
		return false
	}
	if qf.Section != "" && e.Section != qf.Section {
		return false
	}
	if qf.Substituted != nil && e.IsSubstituted != *qf.Substituted {
		return false
	}
	return true
}
