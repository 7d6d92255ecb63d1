package schedule

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrEntryNotFound = errors.New("timetable entry not found")

	errMalformedInterval = errors.New("end_time must be after start_time")
	errTeacherConflict   = "teacher has a conflicting schedule"
	errRoomConflict      = "room is already booked for this time slot"
)

// ResourceKind is a schedule resource axis checked for double-booking.
type ResourceKind string

const (
	ResourceTeacher ResourceKind = "TEACHER"
	ResourceRoom    ResourceKind = "ROOM"
)

// ChangeKind tags a schedule-change event for notification fan-out.
type ChangeKind string

const (
	ChangeCreated           ChangeKind = "CREATED"
	ChangeUpdated           ChangeKind = "UPDATED"
	ChangeSubstituteRemoved ChangeKind = "SUBSTITUTE_REMOVED"
)

type (
	Repository interface {
		CreateEntry(e Entry) (Entry, error)
		GetEntryByID(id string) (Entry, error)
		QueryAllEntries() ([]Entry, error)
		// FilterEntries applies AND operation on available QueryFilter fields.
		FilterEntries(filter QueryFilter) ([]Entry, error)
		UpdateEntry(e Entry) (Entry, error)
		DeleteEntryByID(id string) error
		// FindOccupiedByTeacher returns entries holding the teacher's slot
		// (status ACTIVE or SUBSTITUTED) on the given day.
		FindOccupiedByTeacher(teacherID string, day Day) ([]Entry, error)
		// FindOccupiedByRoom returns entries holding the room's slot
		// (status ACTIVE or SUBSTITUTED) on the given day.
		FindOccupiedByRoom(room string, day Day) ([]Entry, error)
	}

	// Notifier receives schedule-change events after a successful write.
	// Implementations must never block the workflow on delivery.
	Notifier interface {
		ScheduleChanged(e Entry, change ChangeKind)
	}

	Service struct {
		repo     Repository
		notifier Notifier

		// mu serializes conflict-check-then-persist so that two concurrent
		// writes cannot both observe "no conflict" and then persist
		// overlapping slots.
		mu sync.Mutex

		nowFunc func() time.Time
	}
)

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		nowFunc:  time.Now,
	}
}

// HasConflict reports whether any occupying entry overlaps the candidate
// interval for the given resource on the given day. excludeID lets an update
// check against all other entries; pass "" when not applicable.
func (svc *Service) HasConflict(kind ResourceKind, resourceID string, day Day, iv Interval, excludeID string) (bool, error) {
	var (
		occupied []Entry
		err      error
	)
	switch kind {
	case ResourceRoom:
		occupied, err = svc.repo.FindOccupiedByRoom(resourceID, day)
	default:
		occupied, err = svc.repo.FindOccupiedByTeacher(resourceID, day)
	}
	if err != nil {
		return false, err
	}
	for _, e := range occupied {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if e.Interval.Overlaps(iv) {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) checkConflicts(e Entry, excludeID string) error {
	if conflict, err := svc.HasConflict(ResourceTeacher, e.TeacherID, e.Day, e.Interval, excludeID); err != nil {
		return err
	} else if conflict {
		return core.NewConflictError(string(ResourceTeacher), errTeacherConflict)
	}
	if conflict, err := svc.HasConflict(ResourceRoom, e.Room, e.Day, e.Interval, excludeID); err != nil {
		return err
	} else if conflict {
		return core.NewConflictError(string(ResourceRoom), errRoomConflict)
	}
	return nil
}

func (svc *Service) Create(ne NewEntry) (Entry, error) {
	iv, err := parseInterval(ne.StartTime, ne.EndTime)
	if err != nil {
		return Entry{}, err
	}

	now := svc.nowFunc().UTC()
	e := Entry{
		ID:           uuid.New().String(),
		DepartmentID: ne.DepartmentID,
		TeacherID:    ne.TeacherID,
		Semester:     ne.Semester,
		Subject:      ne.Subject,
		Day:          Day(ne.Day),
		Interval:     iv,
		Room:         ne.Room,
		CourseCode:   ne.CourseCode,
		Credits:      ne.Credits,
		AcademicYear: ne.AcademicYear,
		Section:      ne.Section,
		SessionType:  ne.SessionType,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	svc.mu.Lock()
	if err := svc.checkConflicts(e, ""); err != nil {
		svc.mu.Unlock()
		return Entry{}, err
	}
	saved, err := svc.repo.CreateEntry(e)
	svc.mu.Unlock()
	if err != nil {
		return Entry{}, err
	}

	svc.notifier.ScheduleChanged(saved, ChangeCreated)
	return saved, nil
}

func (svc *Service) Update(id string, ue UpdateEntry) (Entry, error) {
	iv, err := parseInterval(ue.StartTime, ue.EndTime)
	if err != nil {
		return Entry{}, err
	}

	svc.mu.Lock()
	e, err := svc.getLocked(id)
	if err != nil {
		svc.mu.Unlock()
		return Entry{}, err
	}

	significant := e.TeacherID != ue.TeacherID ||
		e.Interval.Start != iv.Start ||
		e.Interval.End != iv.End ||
		e.Day != Day(ue.Day) ||
		e.Room != ue.Room

	if significant {
		candidate := e
		candidate.TeacherID = ue.TeacherID
		candidate.Day = Day(ue.Day)
		candidate.Interval = iv
		candidate.Room = ue.Room
		if err := svc.checkConflicts(candidate, id); err != nil {
			svc.mu.Unlock()
			return Entry{}, err
		}
	}

	e.DepartmentID = ue.DepartmentID
	e.TeacherID = ue.TeacherID
	e.Semester = ue.Semester
	e.Subject = ue.Subject
	e.Day = Day(ue.Day)
	e.Interval = iv
	e.Room = ue.Room
	e.CourseCode = ue.CourseCode
	e.Credits = ue.Credits
	e.AcademicYear = ue.AcademicYear
	e.Section = ue.Section
	e.SessionType = ue.SessionType
	if ue.Status != "" {
		e.Status = Status(ue.Status)
	}
	e.UpdatedAt = svc.nowFunc().UTC()

	saved, err := svc.repo.UpdateEntry(e)
	svc.mu.Unlock()
	if err != nil {
		return Entry{}, err
	}

	if significant {
		svc.notifier.ScheduleChanged(saved, ChangeUpdated)
	}
	return saved, nil
}

// Delete hard-removes an entry. Deactivate is the preferred soft path.
func (svc *Service) Delete(id string) error {
	if err := svc.repo.DeleteEntryByID(id); err != nil {
		return svc.wrapNotFound(err, id)
	}
	return nil
}

// Deactivate sets status INACTIVE. No notification is dispatched.
func (svc *Service) Deactivate(id string) (Entry, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	e, err := svc.getLocked(id)
	if err != nil {
		return Entry{}, err
	}
	e.Status = StatusInactive
	e.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateEntry(e)
}

// RemoveSubstitute clears the substitution fields and restores the entry to
// ACTIVE, then dispatches a SUBSTITUTE_REMOVED schedule change.
func (svc *Service) RemoveSubstitute(id string) (Entry, error) {
	svc.mu.Lock()
	e, err := svc.getLocked(id)
	if err != nil {
		svc.mu.Unlock()
		return Entry{}, err
	}
	e.SubstituteTeacherID = ""
	e.IsSubstituted = false
	e.SubstituteReason = ""
	e.SubstitutionDate = nil
	e.Status = StatusActive
	e.UpdatedAt = svc.nowFunc().UTC()

	saved, err := svc.repo.UpdateEntry(e)
	svc.mu.Unlock()
	if err != nil {
		return Entry{}, err
	}

	svc.notifier.ScheduleChanged(saved, ChangeSubstituteRemoved)
	return saved, nil
}

// ApplySubstitute marks the entry SUBSTITUTED for the given substitute
// teacher. The substitution workflow is the only caller allowed to flip
// substitution state; it dispatches its own notification.
func (svc *Service) ApplySubstitute(id, substituteTeacherID, reason string, date time.Time) (Entry, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	e, err := svc.getLocked(id)
	if err != nil {
		return Entry{}, err
	}
	e.SubstituteTeacherID = substituteTeacherID
	e.IsSubstituted = true
	e.SubstituteReason = reason
	e.SubstitutionDate = &date
	e.Status = StatusSubstituted
	e.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateEntry(e)
}

// Queries

func (svc *Service) QueryAll() ([]Entry, error) {
	return svc.repo.QueryAllEntries()
}

func (svc *Service) GetByID(id string) (Entry, error) {
	e, err := svc.repo.GetEntryByID(id)
	if err != nil {
		return Entry{}, svc.wrapNotFound(err, id)
	}
	return e, nil
}

func (svc *Service) Filter(filter QueryFilter) ([]Entry, error) {
	if filter.IsEmpty() {
		return svc.repo.QueryAllEntries()
	}
	return svc.repo.FilterEntries(filter)
}

// ActiveEntriesByDay returns ACTIVE entries scheduled on the given day;
// the daily reminder run feeds off of it.
func (svc *Service) ActiveEntriesByDay(day Day) ([]Entry, error) {
	return svc.repo.FilterEntries(QueryFilter{Day: string(day), Status: string(StatusActive)})
}

func (svc *Service) getLocked(id string) (Entry, error) {
	e, err := svc.repo.GetEntryByID(id)
	if err != nil {
		return Entry{}, svc.wrapNotFound(err, id)
	}
	return e, nil
}

func (svc *Service) wrapNotFound(err error, id string) error {
	if errors.Is(err, ErrEntryNotFound) {
		return core.NewNotFoundError("timetable entry", id)
	}
	return err
}
