package substitution_test

import (
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/substitution"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
)

type scheduleNotifierStub struct{}

func (scheduleNotifierStub) ScheduleChanged(schedule.Entry, schedule.ChangeKind) {}

type notifierStub struct {
	approved []string // substitute teacher ids
}

func (n *notifierStub) SubstitutionApproved(_ schedule.Entry, substituteTeacherID, _ string) {
	n.approved = append(n.approved, substituteTeacherID)
}

func setup(t *testing.T) (*substitution.Service, *schedule.Service, *notifierStub) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	schedSvc := schedule.NewService(inmemdb.NewEntryRepository(db), scheduleNotifierStub{})
	notifier := &notifierStub{}
	svc := substitution.NewService(inmemdb.NewRequestRepository(db), schedSvc, notifier)
	return svc, schedSvc, notifier
}

func createEntry(t *testing.T, schedSvc *schedule.Service, teacher, room, start, end string) schedule.Entry {
	e, err := schedSvc.Create(schedule.NewEntry{
		DepartmentID: "cs",
		TeacherID:    teacher,
		Subject:      "Operating Systems",
		Day:          "MONDAY",
		StartTime:    start,
		EndTime:      end,
		Room:         room,
	})
	if err != nil {
		t.Fatalf("createEntry() failed: %v", err)
	}
	return e
}

func newRequest(entry schedule.Entry, substitute string) substitution.NewRequest {
	return substitution.NewRequest{
		OriginalTeacherID:   entry.TeacherID,
		SubstituteTeacherID: substitute,
		TimetableID:         entry.ID,
		Reason:              "medical leave",
		SubstituteDate:      time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_Create(t *testing.T) {
	svc, schedSvc, _ := setup(t)
	entry := createEntry(t, schedSvc, "t1", "r1", "09:00", "10:00")

	req, err := svc.Create(newRequest(entry, "t2"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if req.Status != substitution.StatusPending {
		t.Errorf("status = %s; want %s", req.Status, substitution.StatusPending)
	}
	if req.ID == "" || req.RequestDate.IsZero() {
		t.Errorf("request not fully initialized: %+v", req)
	}
}

func TestService_Create_substituteConflict(t *testing.T) {
	svc, schedSvc, _ := setup(t)
	entry := createEntry(t, schedSvc, "t1", "r1", "09:00", "10:00")
	// the proposed substitute already teaches an overlapping slot
	createEntry(t, schedSvc, "t2", "r2", "09:30", "10:30")

	_, err := svc.Create(newRequest(entry, "t2"))
	if _, ok := err.(*core.ConflictError); !ok {
		t.Fatalf("want *core.ConflictError; got %T (%v)", err, err)
	}
}

func TestService_Create_unknownEntry(t *testing.T) {
	svc, _, _ := setup(t)

	nr := substitution.NewRequest{
		OriginalTeacherID:   "t1",
		SubstituteTeacherID: "t2",
		TimetableID:         "nope",
		Reason:              "medical leave",
	}
	_, err := svc.Create(nr)
	if _, ok := err.(*core.NotFoundError); !ok {
		t.Fatalf("want *core.NotFoundError; got %T (%v)", err, err)
	}
}

func TestService_Approve(t *testing.T) {
	svc, schedSvc, notifier := setup(t)
	entry := createEntry(t, schedSvc, "t1", "r1", "09:00", "10:00")

	req, err := svc.Create(newRequest(entry, "t2"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	approved, err := svc.Approve(req.ID, "head-of-dept")
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if approved.Status != substitution.StatusApproved {
		t.Errorf("status = %s; want %s", approved.Status, substitution.StatusApproved)
	}
	if approved.ApprovedBy != "head-of-dept" {
		t.Errorf("approvedBy = %s; want head-of-dept", approved.ApprovedBy)
	}

	// the timetable entry now carries the substitution
	e, err := schedSvc.GetByID(entry.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if e.Status != schedule.StatusSubstituted || e.SubstituteTeacherID != "t2" || !e.IsSubstituted {
		t.Errorf("substitution not applied to entry: %+v", e)
	}

	if len(notifier.approved) != 1 || notifier.approved[0] != "t2" {
		t.Errorf("approvals notified = %v; want [t2]", notifier.approved)
	}
}

func TestService_Reject(t *testing.T) {
	svc, schedSvc, notifier := setup(t)
	entry := createEntry(t, schedSvc, "t1", "r1", "09:00", "10:00")

	req, err := svc.Create(newRequest(entry, "t2"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	rejected, err := svc.Reject(req.ID, "head-of-dept", "find someone else")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if rejected.Status != substitution.StatusRejected {
		t.Errorf("status = %s; want %s", rejected.Status, substitution.StatusRejected)
	}
	if rejected.Comments != "find someone else" {
		t.Errorf("comments = %q; not recorded", rejected.Comments)
	}

	// entry untouched, nobody notified
	e, err := schedSvc.GetByID(entry.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if e.Status != schedule.StatusActive || e.IsSubstituted {
		t.Errorf("entry modified on reject: %+v", e)
	}
	if len(notifier.approved) != 0 {
		t.Errorf("approvals notified = %v; want none", notifier.approved)
	}
}

func TestService_transitions(t *testing.T) {
	svc, schedSvc, _ := setup(t)

	mkRequest := func(t *testing.T, teacher, substitute, room string) substitution.Request {
		entry := createEntry(t, schedSvc, teacher, room, "09:00", "10:00")
		req, err := svc.Create(newRequest(entry, substitute))
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		return req
	}
	assertInvalid := func(t *testing.T, err error) {
		t.Helper()
		if _, ok := err.(*core.ValidationError); !ok {
			t.Fatalf("want *core.ValidationError; got %T (%v)", err, err)
		}
	}

	t.Run("pending cannot complete", func(t *testing.T) {
		req := mkRequest(t, "t1", "t2", "r1")
		_, err := svc.Complete(req.ID)
		assertInvalid(t, err)
	})

	t.Run("approved can only complete", func(t *testing.T) {
		req := mkRequest(t, "t3", "t4", "r2")
		if _, err := svc.Approve(req.ID, "hod"); err != nil {
			t.Fatalf("Approve() failed: %v", err)
		}
		_, err := svc.Approve(req.ID, "hod")
		assertInvalid(t, err)
		_, err = svc.Reject(req.ID, "hod", "")
		assertInvalid(t, err)

		completed, err := svc.Complete(req.ID)
		if err != nil {
			t.Fatalf("Complete() failed: %v", err)
		}
		if completed.Status != substitution.StatusCompleted {
			t.Errorf("status = %s; want %s", completed.Status, substitution.StatusCompleted)
		}
	})

	t.Run("terminal states refuse every transition", func(t *testing.T) {
		req := mkRequest(t, "t5", "t6", "r3")
		if _, err := svc.Reject(req.ID, "hod", "no"); err != nil {
			t.Fatalf("Reject() failed: %v", err)
		}
		_, err := svc.Approve(req.ID, "hod")
		assertInvalid(t, err)
		_, err = svc.Complete(req.ID)
		assertInvalid(t, err)
	})
}

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to substitution.Status
		want     bool
	}{
		{substitution.StatusPending, substitution.StatusApproved, true},
		{substitution.StatusPending, substitution.StatusRejected, true},
		{substitution.StatusPending, substitution.StatusCompleted, false},
		{substitution.StatusApproved, substitution.StatusCompleted, true},
		{substitution.StatusApproved, substitution.StatusRejected, false},
		{substitution.StatusRejected, substitution.StatusApproved, false},
		{substitution.StatusCompleted, substitution.StatusApproved, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v; want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if substitution.StatusPending.Terminal() || substitution.StatusApproved.Terminal() {
		t.Error("PENDING/APPROVED reported terminal")
	}
	if !substitution.StatusRejected.Terminal() || !substitution.StatusCompleted.Terminal() {
		t.Error("REJECTED/COMPLETED not reported terminal")
	}
}

func TestService_Filter(t *testing.T) {
	svc, schedSvc, _ := setup(t)

	e1 := createEntry(t, schedSvc, "t1", "r1", "09:00", "10:00")
	e2 := createEntry(t, schedSvc, "t2", "r2", "11:00", "12:00")
	if _, err := svc.Create(newRequest(e1, "t3")); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	req2, err := svc.Create(newRequest(e2, "t4"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err = svc.Approve(req2.ID, "hod"); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	pending, err := svc.Filter(substitution.QueryFilter{Status: string(substitution.StatusPending)})
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OriginalTeacherID != "t1" {
		t.Errorf("pending = %+v; want the t1 request only", pending)
	}

	all, err := svc.Filter(substitution.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d requests; want 2", len(all))
	}
}
