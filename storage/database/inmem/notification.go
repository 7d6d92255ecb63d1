package inmemdb

import (
	"time"

	"github.com/trezcool/ratiba/core/notification"
)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) query() []notification.Notification {
	notifs := make([]notification.Notification, 0, len(repo.db.notifications))
	for _, n := range repo.db.notifications {
		notifs = append(notifs, *n)
	}
	return notifs
}

func (repo *notificationRepository) CreateNotification(n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(id string) (notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotificationNotFound
}

func (repo *notificationRepository) QueryAllNotifications() ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *notificationRepository) UpdateNotification(n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notifications[n.ID]; !ok {
		return notification.Notification{}, notification.ErrNotificationNotFound
	}
	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) FindByRecipient(recipientID string) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]notification.Notification, 0)
	for _, n := range repo.query() {
		if containsID(n.RecipientIDs, recipientID) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

func (repo *notificationRepository) FindByDepartmentAndRecipientType(deptID string, rt notification.RecipientType) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]notification.Notification, 0)
	for _, n := range repo.query() {
		if n.DepartmentID == deptID && n.RecipientType == rt {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

func (repo *notificationRepository) FindPendingDue(now time.Time) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]notification.Notification, 0)
	for _, n := range repo.query() {
		if !n.Sent && n.Status == notification.StatusPending && !n.ScheduledAt.After(now) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

func (repo *notificationRepository) FindUnreadByRecipient(recipientID string) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]notification.Notification, 0)
	for _, n := range repo.query() {
		if !n.IsRead && containsID(n.RecipientIDs, recipientID) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

type notificationLogRepository struct {
	db *DB
}

func NewNotificationLogRepository(db *DB) notification.LogRepository {
	return &notificationLogRepository{db: db}
}

func (repo *notificationLogRepository) CreateLog(l notification.Log) (notification.Log, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.logs[l.ID] = &l
	return l, nil
}

func (repo *notificationLogRepository) QueryLogsByNotification(notificationID string) ([]notification.Log, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]notification.Log, 0)
	for _, l := range repo.db.logs {
		if l.NotificationID == notificationID {
			matches = append(matches, *l)
		}
	}
	return matches, nil
}
