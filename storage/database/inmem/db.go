package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/directory"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/substitution"
)

// DB is a mutex-guarded keyed in-memory store; the default engine in
// DEV/TEST and the backing store for package tests.
type DB struct {
	mutex sync.RWMutex

	entries       map[string]*schedule.Entry
	requests      map[string]*substitution.Request
	notifications map[string]*notification.Notification
	logs          map[string]*notification.Log

	teachers    map[string]*directory.Teacher
	students    map[string]*directory.Student
	departments map[string]*directory.Department
}

func Open() (*DB, error) {
	return &DB{
		entries:       make(map[string]*schedule.Entry),
		requests:      make(map[string]*substitution.Request),
		notifications: make(map[string]*notification.Notification),
		logs:          make(map[string]*notification.Log),
		teachers:      make(map[string]*directory.Teacher),
		students:      make(map[string]*directory.Student),
		departments:   make(map[string]*directory.Department),
	}, nil
}
