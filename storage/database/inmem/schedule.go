package inmemdb

import (
	"github.com/trezcool/ratiba/core/schedule"
)

type entryRepository struct {
	db *DB
}

func NewEntryRepository(db *DB) schedule.Repository {
	return &entryRepository{db: db}
}

func (repo *entryRepository) query() []schedule.Entry {
	entries := make([]schedule.Entry, 0, len(repo.db.entries))
	for _, e := range repo.db.entries {
		entries = append(entries, *e)
	}
	return entries
}

func (repo *entryRepository) CreateEntry(e schedule.Entry) (schedule.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *entryRepository) GetEntryByID(id string) (schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.entries[id]; ok {
		return *e, nil
	}
	return schedule.Entry{}, schedule.ErrEntryNotFound
}

func (repo *entryRepository) QueryAllEntries() ([]schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *entryRepository) FilterEntries(filter schedule.QueryFilter) ([]schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]schedule.Entry, 0)
	for _, e := range repo.query() {
		if filter.Match(e) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func (repo *entryRepository) UpdateEntry(e schedule.Entry) (schedule.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.entries[e.ID]; !ok {
		return schedule.Entry{}, schedule.ErrEntryNotFound
	}
	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *entryRepository) DeleteEntryByID(id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.entries[id]; !ok {
		return schedule.ErrEntryNotFound
	}
	delete(repo.db.entries, id)
	return nil
}

func (repo *entryRepository) FindOccupiedByTeacher(teacherID string, day schedule.Day) ([]schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	occupied := make([]schedule.Entry, 0)
	for _, e := range repo.query() {
		if e.TeacherID == teacherID && e.Day == day && e.Status.Occupies() {
			occupied = append(occupied, e)
		}
	}
	return occupied, nil
}

func (repo *entryRepository) FindOccupiedByRoom(room string, day schedule.Day) ([]schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	occupied := make([]schedule.Entry, 0)
	for _, e := range repo.query() {
		if e.Room == room && e.Day == day && e.Status.Occupies() {
			occupied = append(occupied, e)
		}
	}
	return occupied, nil
}
