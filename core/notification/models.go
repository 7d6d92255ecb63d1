package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

// Kind of event a notification was born from.
type Kind string

const (
	KindScheduleChange Kind = "SCHEDULE_CHANGE"
	KindSubstitution   Kind = "SUBSTITUTION"
	KindDailyReminder  Kind = "DAILY_REMINDER"
	KindExam           Kind = "EXAM_NOTIFICATION"
	KindAnnouncement   Kind = "ANNOUNCEMENT"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// RecipientType tags who a notification broadcast targets.
type RecipientType string

const (
	RecipientTeacher    RecipientType = "TEACHER"
	RecipientStudent    RecipientType = "STUDENT"
	RecipientDepartment RecipientType = "DEPARTMENT"
	RecipientAll        RecipientType = "ALL"
)

// DeliveryStatus of the transport attempt. SENT and FAILED are set by the
// delivery pipeline only; workflows never wait on them.
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "PENDING"
	StatusSent    DeliveryStatus = "SENT"
	StatusFailed  DeliveryStatus = "FAILED"
)

// Channel a delivery attempt went out on.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
)

type Notification struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	Kind          Kind           `json:"type"`
	Priority      Priority       `json:"priority"`
	RecipientIDs  []string       `json:"recipient_ids"`
	RecipientType RecipientType  `json:"recipient_type"`
	TimetableID   string         `json:"timetable_id,omitempty"`
	DepartmentID  string         `json:"department_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`   // UTC
	ScheduledAt   time.Time      `json:"scheduled_at"` // when to send
	Sent          bool           `json:"sent"`
	IsRead        bool           `json:"is_read"`
	Status        DeliveryStatus `json:"status"`
}

// Log is a write-once audit record, one per dispatch attempt.
type Log struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notification_id"`
	RecipientIDs   []string  `json:"recipient_ids"`
	Message        string    `json:"message"`
	Channel        Channel   `json:"channel"`
	SentAt         time.Time `json:"sent_at"` // UTC
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// NewAnnouncement contains information needed to broadcast a department
// announcement.
type NewAnnouncement struct {
	DepartmentID  string `json:"department_id" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Message       string `json:"message" validate:"required"`
	RecipientType string `json:"recipient_type" validate:"required,oneof=TEACHER STUDENT ALL"`
	Priority      string `json:"priority" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.DepartmentID = core.CleanString(na.DepartmentID)
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	return validate.Struct(na)
}

// NewExamNotice contains information needed to announce an exam to a
// department's students.
type NewExamNotice struct {
	DepartmentID string    `json:"department_id" validate:"required"`
	ExamTitle    string    `json:"exam_title" validate:"required"`
	ExamDate     time.Time `json:"exam_date" validate:"required"`
	Venue        string    `json:"venue" validate:"required"`
}

func (ne *NewExamNotice) Validate(validate *validator.Validate) error {
	ne.DepartmentID = core.CleanString(ne.DepartmentID)
	ne.ExamTitle = core.CleanString(ne.ExamTitle)
	ne.Venue = core.CleanString(ne.Venue)
	return validate.Struct(ne)
}
