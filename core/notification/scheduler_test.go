package notification_test

import (
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
)

type entrySourceStub struct {
	entries []schedule.Entry
	// block, when set, stalls calls until released; lets tests observe the
	// single-flight guard deterministically
	started chan struct{}
	block   chan struct{}
}

func (s *entrySourceStub) ActiveEntriesByDay(schedule.Day) ([]schedule.Entry, error) {
	if s.block != nil {
		s.started <- struct{}{}
		<-s.block
	}
	return s.entries, nil
}

func schedulerConf() core.NotificationConfig {
	return core.NotificationConfig{
		DailyReminderAt: "08:00",
		FlushInterval:   time.Minute,
	}
}

func TestNewReminderScheduler_badClock(t *testing.T) {
	svc, _ := setup(t)

	conf := schedulerConf()
	conf.DailyReminderAt = "25:99"
	if _, err := notification.NewReminderScheduler(svc, &entrySourceStub{}, loggerStub{}, conf); err == nil {
		t.Error("NewReminderScheduler() accepted an invalid reminder time")
	}
}

func TestReminderScheduler_RunDailyReminders(t *testing.T) {
	svc, _ := setup(t)

	src := &entrySourceStub{entries: []schedule.Entry{csEntry()}}
	rs, err := notification.NewReminderScheduler(svc, src, loggerStub{}, schedulerConf())
	if err != nil {
		t.Fatalf("NewReminderScheduler() failed: %v", err)
	}

	count, err := rs.RunDailyReminders()
	if err != nil {
		t.Fatalf("RunDailyReminders() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("reminded %d entries; want 1", count)
	}

	// cs has students: teacher + student reminders
	notifs, err := svc.QueryAll()
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(notifs) != 2 {
		t.Errorf("got %d notifications; want 2", len(notifs))
	}
	for _, n := range notifs {
		if n.Kind != notification.KindDailyReminder {
			t.Errorf("kind = %s; want %s", n.Kind, notification.KindDailyReminder)
		}
	}
}

func TestReminderScheduler_singleFlight(t *testing.T) {
	svc, _ := setup(t)

	src := &entrySourceStub{
		started: make(chan struct{}, 2),
		block:   make(chan struct{}),
	}
	rs, err := notification.NewReminderScheduler(svc, src, loggerStub{}, schedulerConf())
	if err != nil {
		t.Fatalf("NewReminderScheduler() failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := rs.RunDailyReminders()
		done <- err
	}()

	<-src.started // first run is now inside the source
	if _, err := rs.RunDailyReminders(); err != notification.ErrRunInFlight {
		t.Errorf("overlapping run error = %v; want ErrRunInFlight", err)
	}

	close(src.block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// the guard resets once the run finishes
	if _, err := rs.RunDailyReminders(); err != nil {
		t.Errorf("run after release failed: %v", err)
	}
}

func TestReminderScheduler_FlushPending(t *testing.T) {
	svc, mailSvc := setup(t)

	rs, err := notification.NewReminderScheduler(svc, &entrySourceStub{}, loggerStub{}, schedulerConf())
	if err != nil {
		t.Fatalf("NewReminderScheduler() failed: %v", err)
	}

	svc.ScheduleChanged(csEntry(), schedule.ChangeUpdated)

	count, err := rs.FlushPending()
	if err != nil {
		t.Fatalf("FlushPending() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("flushed %d; want 2", count)
	}
	if got := len(mailSvc.SentMessages()); got != 2 {
		t.Errorf("sent %d emails; want 2", got)
	}

	// nothing left to flush
	count, err = rs.FlushPending()
	if err != nil {
		t.Fatalf("FlushPending() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("flushed %d; want 0", count)
	}
}

func TestReminderScheduler_StartStop(t *testing.T) {
	svc, _ := setup(t)

	rs, err := notification.NewReminderScheduler(svc, &entrySourceStub{}, loggerStub{}, schedulerConf())
	if err != nil {
		t.Fatalf("NewReminderScheduler() failed: %v", err)
	}

	rs.Start()
	stopped := make(chan struct{})
	go func() {
		rs.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}
}
