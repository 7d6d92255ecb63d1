package notification

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

// ErrRunInFlight is returned when a manual trigger finds the same task
// already running.
var ErrRunInFlight = errors.New("previous run still in flight")

// EntrySource is the slice of the timetable the reminder scheduler reads.
type EntrySource interface {
	ActiveEntriesByDay(day schedule.Day) ([]schedule.Entry, error)
}

// ReminderScheduler drives two independent periodic tasks against the
// dispatcher: a once-daily "class today" reminder run at a fixed local time,
// and a short-period flush of persisted notifications whose scheduled time
// has elapsed. Runs never overlap with themselves; both tasks can also be
// triggered manually for operational testing.
type ReminderScheduler struct {
	svc     *Service
	entries EntrySource
	logger  core.Logger

	reminderHour   int
	reminderMinute int
	flushEvery     time.Duration

	dailyInFlight int32
	flushInFlight int32

	stop    chan struct{}
	wg      sync.WaitGroup
	nowFunc func() time.Time
}

func NewReminderScheduler(svc *Service, entries EntrySource, logger core.Logger, conf core.NotificationConfig) (*ReminderScheduler, error) {
	at, err := schedule.ParseClock(conf.DailyReminderAt)
	if err != nil {
		return nil, err
	}
	flushEvery := conf.FlushInterval
	if flushEvery <= 0 {
		flushEvery = 5 * time.Minute
	}
	return &ReminderScheduler{
		svc:            svc,
		entries:        entries,
		logger:         logger,
		reminderHour:   int(at) / 60,
		reminderMinute: int(at) % 60,
		flushEvery:     flushEvery,
		stop:           make(chan struct{}),
		nowFunc:        time.Now,
	}, nil
}

func (rs *ReminderScheduler) Start() {
	rs.wg.Add(2)
	go rs.dailyLoop()
	go rs.flushLoop()
}

func (rs *ReminderScheduler) Stop() {
	close(rs.stop)
	rs.wg.Wait()
}

func (rs *ReminderScheduler) dailyLoop() {
	defer rs.wg.Done()
	for {
		timer := time.NewTimer(rs.untilNextRun())
		select {
		case <-timer.C:
			if _, err := rs.RunDailyReminders(); err != nil && !errors.Is(err, ErrRunInFlight) {
				rs.logger.Error("daily reminder run", err)
			}
		case <-rs.stop:
			timer.Stop()
			return
		}
	}
}

func (rs *ReminderScheduler) flushLoop() {
	defer rs.wg.Done()
	ticker := time.NewTicker(rs.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := rs.FlushPending(); err != nil && !errors.Is(err, ErrRunInFlight) {
				rs.logger.Error("pending notification flush", err)
			}
		case <-rs.stop:
			return
		}
	}
}

// untilNextRun computes the duration until the next daily fire time in local
// time.
func (rs *ReminderScheduler) untilNextRun() time.Duration {
	now := rs.nowFunc()
	next := time.Date(now.Year(), now.Month(), now.Day(), rs.reminderHour, rs.reminderMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RunDailyReminders emits reminders for every ACTIVE entry matching the
// current day-of-week and returns the number of entries processed. A run
// already in flight makes this a no-op.
func (rs *ReminderScheduler) RunDailyReminders() (int, error) {
	if !atomic.CompareAndSwapInt32(&rs.dailyInFlight, 0, 1) {
		return 0, ErrRunInFlight
	}
	defer atomic.StoreInt32(&rs.dailyInFlight, 0)

	today := schedule.DayOf(rs.nowFunc())
	entries, err := rs.entries.ActiveEntriesByDay(today)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		rs.svc.DailyReminderFor(e)
	}
	return len(entries), nil
}

// FlushPending sends due unsent notifications and returns how many were
// attempted. A flush already in flight makes this a no-op.
func (rs *ReminderScheduler) FlushPending() (int, error) {
	if !atomic.CompareAndSwapInt32(&rs.flushInFlight, 0, 1) {
		return 0, ErrRunInFlight
	}
	defer atomic.StoreInt32(&rs.flushInFlight, 0)

	return rs.svc.FlushPending()
}
