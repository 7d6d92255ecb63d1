package substitution

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

var (
	// errors
	ErrRequestNotFound = errors.New("substitute request not found")

	errSubstituteConflict = "substitute teacher has a conflicting schedule"
)

type (
	Repository interface {
		CreateRequest(r Request) (Request, error)
		GetRequestByID(id string) (Request, error)
		QueryAllRequests() ([]Request, error)
		// FilterRequests applies AND operation on available QueryFilter fields.
		FilterRequests(filter QueryFilter) ([]Request, error)
		UpdateRequest(r Request) (Request, error)
	}

	// Scheduler is the slice of the timetable workflow the substitution
	// workflow is allowed to touch.
	Scheduler interface {
		GetByID(id string) (schedule.Entry, error)
		HasConflict(kind schedule.ResourceKind, resourceID string, day schedule.Day, iv schedule.Interval, excludeID string) (bool, error)
		ApplySubstitute(id, substituteTeacherID, reason string, date time.Time) (schedule.Entry, error)
	}

	// Notifier receives substitution events after a successful approval.
	Notifier interface {
		SubstitutionApproved(e schedule.Entry, substituteTeacherID, reason string)
	}

	Service struct {
		repo      Repository
		scheduler Scheduler
		notifier  Notifier
		nowFunc   func() time.Time
	}
)

func NewService(repo Repository, scheduler Scheduler, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		notifier:  notifier,
		nowFunc:   time.Now,
	}
}

// Create submits a new request in PENDING state. The substitute teacher is
// conflict-checked against the referenced entry's day and interval first; a
// substitute already teaching an overlapping slot is rejected outright.
func (svc *Service) Create(nr NewRequest) (Request, error) {
	entry, err := svc.scheduler.GetByID(nr.TimetableID)
	if err != nil {
		return Request{}, err
	}

	conflict, err := svc.scheduler.HasConflict(schedule.ResourceTeacher, nr.SubstituteTeacherID, entry.Day, entry.Interval, "")
	if err != nil {
		return Request{}, err
	}
	if conflict {
		return Request{}, core.NewConflictError(string(schedule.ResourceTeacher), errSubstituteConflict)
	}

	now := svc.nowFunc().UTC()
	req := Request{
		ID:                  uuid.New().String(),
		OriginalTeacherID:   nr.OriginalTeacherID,
		SubstituteTeacherID: nr.SubstituteTeacherID,
		TimetableID:         nr.TimetableID,
		Reason:              nr.Reason,
		RequestDate:         now,
		SubstituteDate:      nr.SubstituteDate,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return svc.repo.CreateRequest(req)
}

// Approve moves a PENDING request to APPROVED and applies the substitution to
// the referenced timetable entry, then dispatches the substitution
// notification.
func (svc *Service) Approve(id, approverID string) (Request, error) {
	req, err := svc.get(id)
	if err != nil {
		return Request{}, err
	}
	if err := svc.checkTransition(req, StatusApproved); err != nil {
		return Request{}, err
	}

	now := svc.nowFunc().UTC()
	req.Status = StatusApproved
	req.ApprovedBy = approverID
	req.UpdatedAt = now

	entry, err := svc.scheduler.ApplySubstitute(req.TimetableID, req.SubstituteTeacherID, req.Reason, now)
	if err != nil {
		return Request{}, err
	}

	saved, err := svc.repo.UpdateRequest(req)
	if err != nil {
		return Request{}, err
	}

	svc.notifier.SubstitutionApproved(entry, req.SubstituteTeacherID, req.Reason)
	return saved, nil
}

// Reject moves a PENDING request to REJECTED, recording the approver and
// comments. The timetable entry is untouched and nobody is notified; the
// original workflow behaves this way (see DESIGN.md) even though approve
// notifies widely.
func (svc *Service) Reject(id, approverID, comments string) (Request, error) {
	req, err := svc.get(id)
	if err != nil {
		return Request{}, err
	}
	if err := svc.checkTransition(req, StatusRejected); err != nil {
		return Request{}, err
	}

	req.Status = StatusRejected
	req.ApprovedBy = approverID
	req.Comments = comments
	req.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateRequest(req)
}

// Complete moves an APPROVED request to its terminal COMPLETED state.
func (svc *Service) Complete(id string) (Request, error) {
	req, err := svc.get(id)
	if err != nil {
		return Request{}, err
	}
	if err := svc.checkTransition(req, StatusCompleted); err != nil {
		return Request{}, err
	}

	req.Status = StatusCompleted
	req.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateRequest(req)
}

// Queries

func (svc *Service) QueryAll() ([]Request, error) {
	return svc.repo.QueryAllRequests()
}

func (svc *Service) GetByID(id string) (Request, error) {
	return svc.get(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Request, error) {
	if filter.IsEmpty() {
		return svc.repo.QueryAllRequests()
	}
	return svc.repo.FilterRequests(filter)
}

func (svc *Service) get(id string) (Request, error) {
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return Request{}, core.NewNotFoundError("substitute request", id)
		}
		return Request{}, err
	}
	return req, nil
}

func (svc *Service) checkTransition(req Request, next Status) error {
	if !req.Status.CanTransition(next) {
		return core.NewValidationError(
			fmt.Errorf("cannot move request from %s to %s", req.Status, next),
		)
	}
	return nil
}
