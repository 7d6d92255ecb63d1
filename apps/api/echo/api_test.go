package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/substitution"
	emailsvc "github.com/trezcool/ratiba/services/email"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
)

type loggerStub struct{}

func (loggerStub) Debug(string, ...interface{}) {}
func (loggerStub) Info(string, ...interface{})  {}
func (loggerStub) Warn(string, ...interface{})  {}
func (loggerStub) Error(string, ...interface{}) {}
func (loggerStub) Fatal(string, ...interface{}) {}

type testApp struct {
	server   *Server
	schedSvc *schedule.Service
	subSvc   *substitution.Service
	notifSvc *notification.Service
}

func setup(t *testing.T) *testApp {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	dir := inmemdb.NewDirectory(db)
	inmemdb.SeedDirectory(dir)

	mailSvc := emailsvc.NewDummyService()
	logger := loggerStub{}
	conf := &core.Config{
		TestMode: true,
		AppName:  "Ratiba",
		Server:   core.ServerConfig{Addr: ":0"},
		Notification: core.NotificationConfig{
			DailyReminderAt: "08:00",
			FlushInterval:   time.Minute,
			QueueSize:       16,
		},
	}

	notifSvc := notification.NewService(
		inmemdb.NewNotificationRepository(db),
		inmemdb.NewNotificationLogRepository(db),
		dir, mailSvc, logger, conf.Notification.QueueSize,
	)
	schedSvc := schedule.NewService(inmemdb.NewEntryRepository(db), notifSvc)
	subSvc := substitution.NewService(inmemdb.NewRequestRepository(db), schedSvc, notifSvc)

	reminders, err := notification.NewReminderScheduler(notifSvc, schedSvc, logger, conf.Notification)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		ScheduleSvc:     schedSvc,
		SubstitutionSvc: subSvc,
		NotificationSvc: notifSvc,
		Reminders:       reminders,
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
	})
	return &testApp{server: server, schedSvc: schedSvc, subSvc: subSvc, notifSvc: notifSvc}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
}

func (app *testApp) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func newEntryBody(teacher, room, day, start, end string) schedule.NewEntry {
	return schedule.NewEntry{
		DepartmentID: "cs",
		TeacherID:    teacher,
		Subject:      "Data Structures",
		Day:          day,
		StartTime:    start,
		EndTime:      end,
		Room:         room,
	}
}

func (app *testApp) createEntry(t *testing.T, teacher, room, start, end string) schedule.Entry {
	e, err := app.schedSvc.Create(newEntryBody(teacher, room, "MONDAY", start, end))
	if err != nil {
		t.Fatalf("createEntry() failed: %v", err)
	}
	return e
}

func Test_timetableApi(t *testing.T) {
	app := setup(t)
	existing := app.createEntry(t, "t-asha", "CS-101", "09:00", "10:00")

	tests := []httpTest{
		{
			name:     "create ok",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     marchallObj(t, newEntryBody("t-juma", "CS-102", "MONDAY", "09:00", "10:00")),
			wantCode: http.StatusCreated,
		},
		{
			name:     "teacher double booking",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     marchallObj(t, newEntryBody("t-asha", "CS-103", "MONDAY", "09:30", "10:30")),
			wantCode: http.StatusConflict,
		},
		{
			name:     "room double booking",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     marchallObj(t, newEntryBody("t-neema", "CS-101", "MONDAY", "09:30", "10:30")),
			wantCode: http.StatusConflict,
		},
		{
			name:     "adjacent slot ok",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     marchallObj(t, newEntryBody("t-asha", "CS-101", "MONDAY", "10:00", "11:00")),
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     []byte(`{"teacher_id": "t-asha"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid day",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     marchallObj(t, newEntryBody("t-asha", "CS-104", "FUNDAY", "09:00", "10:00")),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "end before start",
			method:   http.MethodPost,
			path:     "/v1/timetables",
			body:     marchallObj(t, newEntryBody("t-asha", "CS-104", "TUESDAY", "10:00", "09:00")),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/v1/timetables",
			wantCode: http.StatusOK,
		},
		{
			name:     "filter by teacher",
			method:   http.MethodGet,
			path:     "/v1/timetables?teacher=t-asha&day=MONDAY",
			wantCode: http.StatusOK,
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/timetables/" + existing.ID,
			wantCode: http.StatusOK,
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/timetables/nope",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "deactivate",
			method:   http.MethodPatch,
			path:     "/v1/timetables/" + existing.ID + "/deactivate",
			wantCode: http.StatusOK,
		},
		{
			name:     "delete unknown",
			method:   http.MethodDelete,
			path:     "/v1/timetables/nope",
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	t.Run("update", func(t *testing.T) {
		e := app.createEntry(t, "t-neema", "M-204", "13:00", "14:00")
		body := marchallObj(t, schedule.UpdateEntry{
			DepartmentID: e.DepartmentID,
			TeacherID:    e.TeacherID,
			Subject:      "Linear Algebra",
			Day:          string(e.Day),
			StartTime:    "13:00",
			EndTime:      "14:30",
			Room:         e.Room,
		})
		rec := app.do(http.MethodPut, "/v1/timetables/"+e.ID, body)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated schedule.Entry
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Linear Algebra", updated.Subject)
		assert.Equal(t, schedule.Clock(870), updated.Interval.End)
	})

	t.Run("delete", func(t *testing.T) {
		e := app.createEntry(t, "t-neema", "M-205", "15:00", "16:00")
		rec := app.do(http.MethodDelete, "/v1/timetables/"+e.ID)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(http.MethodGet, "/v1/timetables/"+e.ID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_substitutionApi(t *testing.T) {
	app := setup(t)
	entry := app.createEntry(t, "t-asha", "CS-101", "09:00", "10:00")

	newReq := func(substitute string) []byte {
		return marchallObj(t, substitution.NewRequest{
			OriginalTeacherID:   entry.TeacherID,
			SubstituteTeacherID: substitute,
			TimetableID:         entry.ID,
			Reason:              "medical leave",
		})
	}

	var created substitution.Request
	t.Run("create", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/substitute-requests", newReq("t-juma"))
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, substitution.StatusPending, created.Status)
	})

	t.Run("substitute equals original", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/substitute-requests", newReq("t-asha"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("busy substitute conflicts", func(t *testing.T) {
		app.createEntry(t, "t-neema", "M-204", "09:30", "10:30")
		rec := app.do(http.MethodPost, "/v1/substitute-requests", newReq("t-neema"))
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})

	t.Run("approve", func(t *testing.T) {
		body := marchallObj(t, ApprovalRequest{ApprovedBy: "head-of-dept"})
		rec := app.do(http.MethodPatch, "/v1/substitute-requests/"+created.ID+"/approve", body)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var approved substitution.Request
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
		assert.Equal(t, substitution.StatusApproved, approved.Status)

		e, err := app.schedSvc.GetByID(entry.ID)
		assert.NoError(t, err)
		assert.Equal(t, schedule.StatusSubstituted, e.Status)
		assert.Equal(t, "t-juma", e.SubstituteTeacherID)
	})

	t.Run("approve twice", func(t *testing.T) {
		body := marchallObj(t, ApprovalRequest{ApprovedBy: "head-of-dept"})
		rec := app.do(http.MethodPatch, "/v1/substitute-requests/"+created.ID+"/approve", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("complete", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/v1/substitute-requests/"+created.ID+"/complete")
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("reject completed", func(t *testing.T) {
		body := marchallObj(t, RejectionRequest{ApprovedBy: "head-of-dept", Comments: "late"})
		rec := app.do(http.MethodPatch, "/v1/substitute-requests/"+created.ID+"/reject", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("filter by status", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/substitute-requests?status=COMPLETED")
		assert.Equal(t, http.StatusOK, rec.Code)

		var reqs []substitution.Request
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reqs))
		assert.Len(t, reqs, 1)
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/substitute-requests/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_notificationApi(t *testing.T) {
	app := setup(t)

	t.Run("announcement", func(t *testing.T) {
		body := marchallObj(t, notification.NewAnnouncement{
			DepartmentID:  "cs",
			Title:         "Lab closed",
			Message:       "The CS lab is closed today.",
			RecipientType: "ALL",
		})
		rec := app.do(http.MethodPost, "/v1/notifications/announcements", body)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("announcement for unknown department", func(t *testing.T) {
		body := marchallObj(t, notification.NewAnnouncement{
			DepartmentID:  "nope",
			Title:         "Lab closed",
			Message:       "msg",
			RecipientType: "ALL",
		})
		rec := app.do(http.MethodPost, "/v1/notifications/announcements", body)
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})

	t.Run("announcement with bad audience", func(t *testing.T) {
		body := marchallObj(t, notification.NewAnnouncement{
			DepartmentID:  "cs",
			Title:         "Lab closed",
			Message:       "msg",
			RecipientType: "EVERYONE",
		})
		rec := app.do(http.MethodPost, "/v1/notifications/announcements", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("exam notice", func(t *testing.T) {
		body := marchallObj(t, notification.NewExamNotice{
			DepartmentID: "cs",
			ExamTitle:    "Final Exam",
			ExamDate:     time.Date(2026, time.September, 14, 9, 0, 0, 0, time.UTC),
			Venue:        "Main Hall",
		})
		rec := app.do(http.MethodPost, "/v1/notifications/exams", body)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("list and read tracking", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/notifications")
		assert.Equal(t, http.StatusOK, rec.Code)

		var notifs []notification.Notification
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
		assert.Len(t, notifs, 2)

		rec = app.do(http.MethodGet, "/v1/notifications/recipient/s-baraka?role=STUDENT")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
		assert.Len(t, notifs, 2)

		rec = app.do(http.MethodPatch, "/v1/notifications/"+notifs[0].ID+"/read")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = app.do(http.MethodPatch, "/v1/notifications/recipient/s-baraka/read-all")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = app.do(http.MethodGet, "/v1/notifications/recipient/s-baraka/unread")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
		assert.Empty(t, notifs)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/notifications/recipient/ghost?role=STUDENT")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("process pending", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/notifications/pending/process")
		assert.Equal(t, http.StatusOK, rec.Code)

		var res map[string]int
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 2, res["processed"])
	})

	t.Run("trigger daily reminders", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/daily-reminders/trigger")
		assert.Equal(t, http.StatusOK, rec.Code)

		var res map[string]int
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 0, res["reminded"]) // no entries scheduled today
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/notifications/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
