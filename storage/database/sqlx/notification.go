package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/ratiba/core/notification"
)

type notificationRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Message       string         `db:"message"`
	Kind          string         `db:"kind"`
	Priority      string         `db:"priority"`
	RecipientIDs  pq.StringArray `db:"recipient_ids"`
	RecipientType string         `db:"recipient_type"`
	TimetableID   string         `db:"timetable_id"`
	DepartmentID  string         `db:"department_id"`
	CreatedAt     time.Time      `db:"created_at"`
	ScheduledAt   time.Time      `db:"scheduled_at"`
	Sent          bool           `db:"sent"`
	IsRead        bool           `db:"is_read"`
	Status        string         `db:"status"`
}

func newNotificationRow(n notification.Notification) notificationRow {
	return notificationRow{
		ID:            n.ID,
		Title:         n.Title,
		Message:       n.Message,
		Kind:          string(n.Kind),
		Priority:      string(n.Priority),
		RecipientIDs:  pq.StringArray(n.RecipientIDs),
		RecipientType: string(n.RecipientType),
		TimetableID:   n.TimetableID,
		DepartmentID:  n.DepartmentID,
		CreatedAt:     n.CreatedAt,
		ScheduledAt:   n.ScheduledAt,
		Sent:          n.Sent,
		IsRead:        n.IsRead,
		Status:        string(n.Status),
	}
}

func (row notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:            row.ID,
		Title:         row.Title,
		Message:       row.Message,
		Kind:          notification.Kind(row.Kind),
		Priority:      notification.Priority(row.Priority),
		RecipientIDs:  []string(row.RecipientIDs),
		RecipientType: notification.RecipientType(row.RecipientType),
		TimetableID:   row.TimetableID,
		DepartmentID:  row.DepartmentID,
		CreatedAt:     row.CreatedAt,
		ScheduledAt:   row.ScheduledAt,
		Sent:          row.Sent,
		IsRead:        row.IsRead,
		Status:        notification.DeliveryStatus(row.Status),
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(n notification.Notification) (notification.Notification, error) {
	const query = `
		INSERT INTO notification (
			id, title, message, kind, priority, recipient_ids, recipient_type,
			timetable_id, department_id, created_at, scheduled_at, sent, is_read, status
		) VALUES (
			:id, :title, :message, :kind, :priority, :recipient_ids, :recipient_type,
			:timetable_id, :department_id, :created_at, :scheduled_at, :sent, :is_read, :status
		)`
	if _, err := repo.db.NamedExec(query, newNotificationRow(n)); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(id string) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.Get(&row, `SELECT * FROM notification WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotificationNotFound
		}
		return notification.Notification{}, err
	}
	return row.notification(), nil
}

func (repo *notificationRepository) QueryAllNotifications() ([]notification.Notification, error) {
	var rows []notificationRow
	if err := repo.db.Select(&rows, `SELECT * FROM notification ORDER BY scheduled_at DESC`); err != nil {
		return nil, err
	}
	return notifications(rows), nil
}

func (repo *notificationRepository) UpdateNotification(n notification.Notification) (notification.Notification, error) {
	const query = `
		UPDATE notification SET
			title = :title, message = :message, kind = :kind, priority = :priority,
			recipient_ids = :recipient_ids, recipient_type = :recipient_type,
			timetable_id = :timetable_id, department_id = :department_id,
			scheduled_at = :scheduled_at, sent = :sent, is_read = :is_read,
			status = :status
		WHERE id = :id`
	res, err := repo.db.NamedExec(query, newNotificationRow(n))
	if err != nil {
		return notification.Notification{}, err
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return notification.Notification{}, notification.ErrNotificationNotFound
	}
	return n, nil
}

func (repo *notificationRepository) FindByRecipient(recipientID string) ([]notification.Notification, error) {
	var rows []notificationRow
	const query = `SELECT * FROM notification WHERE $1 = ANY (recipient_ids) ORDER BY scheduled_at DESC`
	if err := repo.db.Select(&rows, query, recipientID); err != nil {
		return nil, err
	}
	return notifications(rows), nil
}

func (repo *notificationRepository) FindByDepartmentAndRecipientType(deptID string, rt notification.RecipientType) ([]notification.Notification, error) {
	var rows []notificationRow
	const query = `
		SELECT * FROM notification
		WHERE department_id = $1 AND recipient_type = $2
		ORDER BY scheduled_at DESC`
	if err := repo.db.Select(&rows, query, deptID, string(rt)); err != nil {
		return nil, err
	}
	return notifications(rows), nil
}

func (repo *notificationRepository) FindPendingDue(now time.Time) ([]notification.Notification, error) {
	var rows []notificationRow
	const query = `
		SELECT * FROM notification
		WHERE NOT sent AND status = 'PENDING' AND scheduled_at <= $1
		ORDER BY scheduled_at`
	if err := repo.db.Select(&rows, query, now); err != nil {
		return nil, err
	}
	return notifications(rows), nil
}

func (repo *notificationRepository) FindUnreadByRecipient(recipientID string) ([]notification.Notification, error) {
	var rows []notificationRow
	const query = `
		SELECT * FROM notification
		WHERE NOT is_read AND $1 = ANY (recipient_ids)
		ORDER BY scheduled_at DESC`
	if err := repo.db.Select(&rows, query, recipientID); err != nil {
		return nil, err
	}
	return notifications(rows), nil
}

func notifications(rows []notificationRow) []notification.Notification {
	out := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.notification())
	}
	return out
}

type logRow struct {
	ID             string         `db:"id"`
	NotificationID string         `db:"notification_id"`
	RecipientIDs   pq.StringArray `db:"recipient_ids"`
	Message        string         `db:"message"`
	Channel        string         `db:"channel"`
	SentAt         time.Time      `db:"sent_at"`
	Success        bool           `db:"success"`
	ErrorMessage   string         `db:"error_message"`
}

func newLogRow(l notification.Log) logRow {
	return logRow{
		ID:             l.ID,
		NotificationID: l.NotificationID,
		RecipientIDs:   pq.StringArray(l.RecipientIDs),
		Message:        l.Message,
		Channel:        string(l.Channel),
		SentAt:         l.SentAt,
		Success:        l.Success,
		ErrorMessage:   l.ErrorMessage,
	}
}

func (row logRow) log() notification.Log {
	return notification.Log{
		ID:             row.ID,
		NotificationID: row.NotificationID,
		RecipientIDs:   []string(row.RecipientIDs),
		Message:        row.Message,
		Channel:        notification.Channel(row.Channel),
		SentAt:         row.SentAt,
		Success:        row.Success,
		ErrorMessage:   row.ErrorMessage,
	}
}

type notificationLogRepository struct {
	db *sqlx.DB
}

func NewNotificationLogRepository(db *sqlx.DB) notification.LogRepository {
	return &notificationLogRepository{db: db}
}

func (repo *notificationLogRepository) CreateLog(l notification.Log) (notification.Log, error) {
	const query = `
		INSERT INTO notification_log (
			id, notification_id, recipient_ids, message, channel, sent_at, success, error_message
		) VALUES (
			:id, :notification_id, :recipient_ids, :message, :channel, :sent_at, :success, :error_message
		)`
	if _, err := repo.db.NamedExec(query, newLogRow(l)); err != nil {
		return notification.Log{}, err
	}
	return l, nil
}

func (repo *notificationLogRepository) QueryLogsByNotification(notificationID string) ([]notification.Log, error) {
	var rows []logRow
	const query = `SELECT * FROM notification_log WHERE notification_id = $1 ORDER BY sent_at`
	if err := repo.db.Select(&rows, query, notificationID); err != nil {
		return nil, err
	}
	logs := make([]notification.Log, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.log())
	}
	return logs, nil
}
