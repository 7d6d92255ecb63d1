package substitution

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

// Status of a substitute request. REJECTED and COMPLETED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// validTransitions is the whole state machine; transition validity is
// enforced here rather than at call sites.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted},
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Request is a proposal to temporarily replace a timetable entry's teacher.
type Request struct {
	ID                  string    `json:"id"`
	OriginalTeacherID   string    `json:"original_teacher_id"`
	SubstituteTeacherID string    `json:"substitute_teacher_id"`
	TimetableID         string    `json:"timetable_id"`
	Reason              string    `json:"reason"`
	RequestDate         time.Time `json:"request_date"`
	SubstituteDate      time.Time `json:"substitute_date"`
	Status              Status    `json:"status"`
	ApprovedBy          string    `json:"approved_by,omitempty"`
	Comments            string    `json:"comments,omitempty"`
	CreatedAt           time.Time `json:"created_at"` // UTC
	UpdatedAt           time.Time `json:"updated_at"` // UTC
}

// NewRequest contains information needed to submit a substitute request.
type NewRequest struct {
	OriginalTeacherID   string    `json:"original_teacher_id" validate:"required"`
	SubstituteTeacherID string    `json:"substitute_teacher_id" validate:"required,nefield=OriginalTeacherID"`
	TimetableID         string    `json:"timetable_id" validate:"required"`
	Reason              string    `json:"reason" validate:"required"`
	SubstituteDate      time.Time `json:"substitute_date"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.OriginalTeacherID = core.CleanString(nr.OriginalTeacherID)
	nr.SubstituteTeacherID = core.CleanString(nr.SubstituteTeacherID)
	nr.TimetableID = core.CleanString(nr.TimetableID)
	nr.Reason = core.CleanString(nr.Reason)
	return validate.Struct(nr)
}

// QueryFilter narrows request listings.
type QueryFilter struct {
	OriginalTeacherID   string `query:"teacher"`
	SubstituteTeacherID string `query:"substitute_teacher"`
	Status              string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.OriginalTeacherID == "" && qf.SubstituteTeacherID == "" && qf.Status == ""
}

// Match reports whether a request satisfies the filter.
func (qf *QueryFilter) Match(r Request) bool {
	if qf.OriginalTeacherID != "" && r.OriginalTeacherID != qf.OriginalTeacherID {
		return false
	}
	if qf.SubstituteTeacherID != "" && r.SubstituteTeacherID != qf.SubstituteTeacherID {
		return false
	}
	if qf.Status != "" && r.Status != Status(qf.Status) {
		return false
	}
	return true
}
