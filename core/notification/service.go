package notification

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/directory"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/substitution"
)

var (
	// errors
	ErrNotificationNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotification(n Notification) (Notification, error)
		GetNotificationByID(id string) (Notification, error)
		QueryAllNotifications() ([]Notification, error)
		UpdateNotification(n Notification) (Notification, error)
		// FindByRecipient returns notifications whose recipient-id list
		// contains the given id.
		FindByRecipient(recipientID string) ([]Notification, error)
		// FindByDepartmentAndRecipientType returns department broadcasts for
		// the given audience.
		FindByDepartmentAndRecipientType(deptID string, rt RecipientType) ([]Notification, error)
		// FindPendingDue returns unsent PENDING notifications whose
		// scheduled time has elapsed. Notifications already marked SENT are
		// excluded by construction of the query.
		FindPendingDue(now time.Time) ([]Notification, error)
		FindUnreadByRecipient(recipientID string) ([]Notification, error)
	}

	LogRepository interface {
		CreateLog(l Log) (Log, error)
		QueryLogsByNotification(notificationID string) ([]Log, error)
	}

	// Service builds, persists and delivers notifications. Persistence is
	// synchronous; delivery goes through a worker queue and its outcome never
	// propagates back to the triggering workflow.
	Service struct {
		repo    Repository
		logRepo LogRepository
		dir     directory.Directory
		mailSvc core.EmailService
		logger  core.Logger

		queue   chan Notification
		wg      sync.WaitGroup
		started bool
		mu      sync.Mutex

		nowFunc func() time.Time
	}
)

func NewService(
	repo Repository,
	logRepo LogRepository,
	dir directory.Directory,
	mailSvc core.EmailService,
	logger core.Logger,
	queueSize int,
) *Service {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Service{
		repo:    repo,
		logRepo: logRepo,
		dir:     dir,
		mailSvc: mailSvc,
		logger:  logger,
		queue:   make(chan Notification, queueSize),
		nowFunc: time.Now,
	}
}

// Start spawns the delivery workers.
func (svc *Service) Start(workers int) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.started {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		svc.wg.Add(1)
		go svc.worker()
	}
	svc.started = true
}

// Stop closes the delivery queue and waits for in-flight sends to finish.
func (svc *Service) Stop() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if !svc.started {
		return
	}
	close(svc.queue)
	svc.wg.Wait()
	svc.started = false
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	for n := range svc.queue {
		svc.deliver(n)
	}
}

// Event builders

var _ schedule.Notifier = (*Service)(nil)
var _ substitution.Notifier = (*Service)(nil)

// ScheduleChanged fans a schedule-change event out to the owning department's
// teachers and students. Teacher-facing and student-facing bodies differ in
// tone and detail.
func (svc *Service) ScheduleChanged(e schedule.Entry, change schedule.ChangeKind) {
	dept, err := svc.dir.DepartmentByID(e.DepartmentID)
	if err != nil {
		svc.logger.Error("schedule change notification: resolving department", err)
		return
	}
	teacherIDs, studentIDs, err := svc.resolveDepartment(e.DepartmentID)
	if err != nil {
		svc.logger.Error("schedule change notification: resolving recipients", err)
		return
	}

	now := svc.nowFunc().UTC()
	teacherNotif := Notification{
		Title: "Schedule Change Alert - " + dept.Name,
		Message: fmt.Sprintf(
			"Schedule change for %s department on %s from %s to %s. Type: %s. Please inform your students.",
			dept.Name, e.Day, e.Interval.Start, e.Interval.End, change,
		),
		Kind:          KindScheduleChange,
		Priority:      PriorityHigh,
		RecipientIDs:  teacherIDs,
		RecipientType: RecipientTeacher,
		TimetableID:   e.ID,
		DepartmentID:  e.DepartmentID,
		ScheduledAt:   now,
	}
	studentNotif := Notification{
		Title: "Class Schedule Change - " + dept.Name,
		Message: fmt.Sprintf(
			"IMPORTANT: Your %s department class schedule has changed.\n\n"+
				"New Schedule: %s at %s to %s\nRoom: %s\nChange Type: %s\n\n"+
				"Please update your calendar and arrive on time.",
			dept.Name, e.Day, e.Interval.Start, e.Interval.End, e.Room, change,
		),
		Kind:          KindScheduleChange,
		Priority:      PriorityHigh,
		RecipientIDs:  studentIDs,
		RecipientType: RecipientStudent,
		TimetableID:   e.ID,
		DepartmentID:  e.DepartmentID,
		ScheduledAt:   now,
	}

	svc.dispatch(teacherNotif, studentNotif)
}

// SubstitutionApproved notifies the original and substitute teachers plus all
// students of the entry's department.
func (svc *Service) SubstitutionApproved(e schedule.Entry, substituteTeacherID, reason string) {
	dept, err := svc.dir.DepartmentByID(e.DepartmentID)
	if err != nil {
		svc.logger.Error("substitution notification: resolving department", err)
		return
	}
	original, err := svc.dir.TeacherByID(e.TeacherID)
	if err != nil {
		svc.logger.Error("substitution notification: resolving original teacher", err)
		return
	}
	substitute, err := svc.dir.TeacherByID(substituteTeacherID)
	if err != nil {
		svc.logger.Error("substitution notification: resolving substitute teacher", err)
		return
	}
	students, err := svc.dir.StudentsByDepartment(e.DepartmentID)
	if err != nil {
		svc.logger.Error("substitution notification: resolving students", err)
		return
	}

	now := svc.nowFunc().UTC()
	teacherNotif := Notification{
		Title: "Teacher Substitution - " + dept.Name,
		Message: fmt.Sprintf(
			"Substitute teacher assigned:\nDepartment: %s\nOriginal Teacher: %s\n"+
				"Substitute: %s\nDate/Time: %s at %s\nReason: %s",
			dept.Name, original.FullName, substitute.FullName, e.Day, e.Interval.Start, reason,
		),
		Kind:          KindSubstitution,
		Priority:      PriorityHigh,
		RecipientIDs:  []string{e.TeacherID, substituteTeacherID},
		RecipientType: RecipientTeacher,
		TimetableID:   e.ID,
		DepartmentID:  e.DepartmentID,
		ScheduledAt:   now,
	}
	studentNotif := Notification{
		Title: "Substitute Teacher - " + dept.Name,
		Message: fmt.Sprintf(
			"Notice: Your %s department class will have a substitute teacher.\n\n"+
				"Substitute Teacher: %s\nDate/Time: %s at %s\nRoom: %s\n\n"+
				"Please attend class as scheduled and show respect to the substitute teacher.",
			dept.Name, substitute.FullName, e.Day, e.Interval.Start, e.Room,
		),
		Kind:          KindSubstitution,
		Priority:      PriorityMedium,
		RecipientIDs:  studentIDs(students),
		RecipientType: RecipientStudent,
		TimetableID:   e.ID,
		DepartmentID:  e.DepartmentID,
		ScheduledAt:   now,
	}

	svc.dispatch(teacherNotif, studentNotif)
}

// DailyReminderFor emits the "class today" reminders for one active entry:
// a teacher reminder always, a student reminder only when the department has
// enrolled students.
func (svc *Service) DailyReminderFor(e schedule.Entry) {
	dept, err := svc.dir.DepartmentByID(e.DepartmentID)
	if err != nil {
		svc.logger.Error("daily reminder: resolving department", err)
		return
	}
	students, err := svc.dir.StudentsByDepartment(e.DepartmentID)
	if err != nil {
		svc.logger.Error("daily reminder: resolving students", err)
		return
	}

	teacherName := "Unknown Teacher"
	if teacher, err := svc.dir.TeacherByID(e.TeacherID); err == nil {
		teacherName = teacher.FullName
	}

	now := svc.nowFunc().UTC()
	notifs := []Notification{{
		Title: "Teaching Reminder - " + dept.Name,
		Message: fmt.Sprintf(
			"Reminder: You have %s department class today at %s in room %s.\nDepartment students: %d",
			dept.Name, e.Interval.Start, e.Room, len(students),
		),
		Kind:          KindDailyReminder,
		Priority:      PriorityMedium,
		RecipientIDs:  []string{e.TeacherID},
		RecipientType: RecipientTeacher,
		TimetableID:   e.ID,
		DepartmentID:  e.DepartmentID,
		ScheduledAt:   now,
	}}

	if len(students) > 0 {
		notifs = append(notifs, Notification{
			Title: "Class Reminder - " + dept.Name,
			Message: fmt.Sprintf(
				"Reminder: You have %s department class today.\n\n"+
					"Time: %s - %s\nRoom: %s\nTeacher: %s\n\n"+
					"Don't forget to bring your materials!",
				dept.Name, e.Interval.Start, e.Interval.End, e.Room, teacherName,
			),
			Kind:          KindDailyReminder,
			Priority:      PriorityMedium,
			RecipientIDs:  studentIDs(students),
			RecipientType: RecipientStudent,
			TimetableID:   e.ID,
			DepartmentID:  e.DepartmentID,
			ScheduledAt:   now,
		})
	}

	svc.dispatch(notifs...)
}

// CreateExamNotification announces an exam to all students of a department.
func (svc *Service) CreateExamNotification(ne NewExamNotice) (Notification, error) {
	dept, err := svc.dir.DepartmentByID(ne.DepartmentID)
	if err != nil {
		return Notification{}, core.NewNotFoundError("department", ne.DepartmentID)
	}
	students, err := svc.dir.StudentsByDepartment(ne.DepartmentID)
	if err != nil {
		return Notification{}, err
	}

	n := Notification{
		Title: "Exam Notification - " + dept.Name,
		Message: fmt.Sprintf(
			"EXAM ALERT: %s\n\nDepartment: %s\nDate: %s\nTime: %s\nVenue: %s\n\n"+
				"Please prepare accordingly and arrive 15 minutes early.",
			ne.ExamTitle, dept.Name,
			ne.ExamDate.Format("Monday, January 02, 2006"),
			ne.ExamDate.Format("15:04"),
			ne.Venue,
		),
		Kind:          KindExam,
		Priority:      PriorityHigh,
		RecipientIDs:  studentIDs(students),
		RecipientType: RecipientStudent,
		DepartmentID:  ne.DepartmentID,
		ScheduledAt:   svc.nowFunc().UTC(),
	}

	saved, err := svc.persist(n)
	if err != nil {
		return Notification{}, err
	}
	svc.enqueue(saved)
	return saved, nil
}

// CreateAnnouncement broadcasts a general department announcement to
// teachers, students or both.
func (svc *Service) CreateAnnouncement(na NewAnnouncement) (Notification, error) {
	dept, err := svc.dir.DepartmentByID(na.DepartmentID)
	if err != nil {
		return Notification{}, core.NewNotFoundError("department", na.DepartmentID)
	}

	rt := RecipientType(na.RecipientType)
	var recipientIDs []string
	if rt == RecipientStudent || rt == RecipientAll {
		students, err := svc.dir.StudentsByDepartment(na.DepartmentID)
		if err != nil {
			return Notification{}, err
		}
		recipientIDs = append(recipientIDs, studentIDs(students)...)
	}
	if rt == RecipientTeacher || rt == RecipientAll {
		teachers, err := svc.dir.TeachersByDepartment(na.DepartmentID)
		if err != nil {
			return Notification{}, err
		}
		recipientIDs = append(recipientIDs, teacherIDs(teachers)...)
	}

	priority := PriorityMedium
	if na.Priority != "" {
		priority = Priority(na.Priority)
	}

	n := Notification{
		Title:         na.Title + " - " + dept.Name,
		Message:       fmt.Sprintf("Department: %s\n\n%s", dept.Name, na.Message),
		Kind:          KindAnnouncement,
		Priority:      priority,
		RecipientIDs:  recipientIDs,
		RecipientType: rt,
		DepartmentID:  na.DepartmentID,
		ScheduledAt:   svc.nowFunc().UTC(),
	}

	saved, err := svc.persist(n)
	if err != nil {
		return Notification{}, err
	}
	svc.enqueue(saved)
	return saved, nil
}

// Reads

func (svc *Service) QueryAll() ([]Notification, error) {
	return svc.repo.QueryAllNotifications()
}

func (svc *Service) GetByID(id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(id)
	if err != nil {
		return Notification{}, svc.wrapNotFound(err, id)
	}
	return n, nil
}

// ForRecipient merges personal notifications with department broadcasts for
// every department the recipient belongs to, de-duplicated by notification id
// (a personal and a broadcast record may otherwise appear twice), sorted by
// scheduled time descending.
func (svc *Service) ForRecipient(recipientID string, role RecipientType) ([]Notification, error) {
	personal, err := svc.repo.FindByRecipient(recipientID)
	if err != nil {
		return nil, err
	}

	var deptIDs []string
	switch role {
	case RecipientTeacher:
		teacher, err := svc.dir.TeacherByID(recipientID)
		if err != nil {
			return nil, core.NewNotFoundError("teacher", recipientID)
		}
		deptIDs = teacher.DepartmentIDs
	case RecipientStudent:
		student, err := svc.dir.StudentByID(recipientID)
		if err != nil {
			return nil, core.NewNotFoundError("student", recipientID)
		}
		deptIDs = []string{student.DepartmentID}
	}

	merged := make([]Notification, 0, len(personal))
	seen := make(map[string]struct{}, len(personal))
	for _, n := range personal {
		if _, ok := seen[n.ID]; !ok {
			seen[n.ID] = struct{}{}
			merged = append(merged, n)
		}
	}
	for _, deptID := range deptIDs {
		broadcasts, err := svc.repo.FindByDepartmentAndRecipientType(deptID, role)
		if err != nil {
			return nil, err
		}
		for _, n := range broadcasts {
			if _, ok := seen[n.ID]; !ok {
				seen[n.ID] = struct{}{}
				merged = append(merged, n)
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ScheduledAt.After(merged[j].ScheduledAt)
	})
	return merged, nil
}

func (svc *Service) Unread(recipientID string) ([]Notification, error) {
	return svc.repo.FindUnreadByRecipient(recipientID)
}

func (svc *Service) MarkRead(id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(id)
	if err != nil {
		return Notification{}, svc.wrapNotFound(err, id)
	}
	n.IsRead = true
	return svc.repo.UpdateNotification(n)
}

func (svc *Service) MarkAllRead(recipientID string) (int, error) {
	unread, err := svc.repo.FindUnreadByRecipient(recipientID)
	if err != nil {
		return 0, err
	}
	for _, n := range unread {
		n.IsRead = true
		if _, err := svc.repo.UpdateNotification(n); err != nil {
			return 0, err
		}
	}
	return len(unread), nil
}

func (svc *Service) LogsFor(notificationID string) ([]Log, error) {
	return svc.logRepo.QueryLogsByNotification(notificationID)
}

// Delivery pipeline

// FlushPending sends every persisted notification whose scheduled time has
// elapsed and which has not been sent yet. It runs synchronously on the
// caller's goroutine (the periodic flush task or the manual trigger).
func (svc *Service) FlushPending() (int, error) {
	due, err := svc.repo.FindPendingDue(svc.nowFunc().UTC())
	if err != nil {
		return 0, err
	}
	for _, n := range due {
		svc.deliver(n)
	}
	return len(due), nil
}

// dispatch persists the given notifications and hands them to the delivery
// queue. Persistence failures are logged, never returned: the triggering
// workflow has already committed its own write.
func (svc *Service) dispatch(notifs ...Notification) {
	for _, n := range notifs {
		saved, err := svc.persist(n)
		if err != nil {
			svc.logger.Error("persisting notification", err)
			continue
		}
		svc.enqueue(saved)
	}
}

func (svc *Service) persist(n Notification) (Notification, error) {
	n.ID = uuid.New().String()
	n.CreatedAt = svc.nowFunc().UTC()
	if n.ScheduledAt.IsZero() {
		n.ScheduledAt = n.CreatedAt
	}
	n.Status = StatusPending
	return svc.repo.CreateNotification(n)
}

// enqueue never blocks the caller; when the queue is full the notification
// stays PENDING and the flush task picks it up later.
func (svc *Service) enqueue(n Notification) {
	select {
	case svc.queue <- n:
	default:
		svc.logger.Warn("delivery queue full; leaving notification for flush", n.ID)
	}
}

// deliver makes exactly one transport attempt and records its outcome on the
// notification and in the audit log.
func (svc *Service) deliver(n Notification) {
	recipients := svc.resolveAddresses(n)

	var sendErr error
	if len(recipients) > 0 {
		sendErr = svc.mailSvc.SendMessage(&core.EmailMessage{
			To:      recipients,
			Subject: n.Title,
			Body:    n.Message,
		})
	}

	now := svc.nowFunc().UTC()
	entry := Log{
		ID:             uuid.New().String(),
		NotificationID: n.ID,
		RecipientIDs:   n.RecipientIDs,
		Message:        n.Message,
		Channel:        ChannelEmail,
		SentAt:         now,
		Success:        sendErr == nil,
	}

	if sendErr != nil {
		n.Status = StatusFailed
		entry.ErrorMessage = sendErr.Error()
		svc.logger.Error("failed to send notification: "+n.ID, sendErr)
	} else {
		n.Sent = true
		n.Status = StatusSent
		svc.logger.Info("notification sent successfully: " + n.ID)
	}

	if _, err := svc.repo.UpdateNotification(n); err != nil {
		svc.logger.Error("updating notification status", err)
	}
	if _, err := svc.logRepo.CreateLog(entry); err != nil {
		svc.logger.Error("writing notification log", err)
	}
}

// resolveAddresses maps recipient ids to email addresses; unknown ids are
// skipped rather than failing the whole attempt.
func (svc *Service) resolveAddresses(n Notification) []mail.Address {
	addrs := make([]mail.Address, 0, len(n.RecipientIDs))
	for _, id := range n.RecipientIDs {
		if teacher, err := svc.dir.TeacherByID(id); err == nil {
			addrs = append(addrs, mail.Address{Name: teacher.FullName, Address: teacher.Email})
			continue
		}
		if student, err := svc.dir.StudentByID(id); err == nil {
			addrs = append(addrs, mail.Address{Name: student.FullName, Address: student.Email})
		}
	}
	return addrs
}

// resolveDepartment maps a department id to its teacher-id and student-id
// sets.
func (svc *Service) resolveDepartment(deptID string) (teachers, students []string, err error) {
	ts, err := svc.dir.TeachersByDepartment(deptID)
	if err != nil {
		return nil, nil, err
	}
	ss, err := svc.dir.StudentsByDepartment(deptID)
	if err != nil {
		return nil, nil, err
	}
	return teacherIDs(ts), studentIDs(ss), nil
}

func (svc *Service) wrapNotFound(err error, id string) error {
	if errors.Is(err, ErrNotificationNotFound) {
		return core.NewNotFoundError("notification", id)
	}
	return err
}

func teacherIDs(teachers []directory.Teacher) []string {
	ids := make([]string, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.ID)
	}
	return ids
}

func studentIDs(students []directory.Student) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}
