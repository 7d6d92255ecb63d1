package inmemdb

import (
	"github.com/trezcool/ratiba/core/directory"
)

// Directory is an in-memory read-only lookup collaborator, with seed
// helpers for fixtures.
type Directory struct {
	db *DB
}

var _ directory.Directory = (*Directory)(nil)

func NewDirectory(db *DB) *Directory {
	return &Directory{db: db}
}

// Seed helpers; the admin binary and tests load fixtures through these.

func (repo *Directory) AddTeacher(t directory.Teacher) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.teachers[t.ID] = &t
}

func (repo *Directory) AddStudent(s directory.Student) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.students[s.ID] = &s
}

func (repo *Directory) AddDepartment(d directory.Department) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.departments[d.ID] = &d
}

func (repo *Directory) TeacherByID(id string) (directory.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return *t, nil
	}
	return directory.Teacher{}, directory.ErrTeacherNotFound
}

func (repo *Directory) TeachersByDepartment(deptID string) ([]directory.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]directory.Teacher, 0)
	for _, t := range repo.db.teachers {
		for _, id := range t.DepartmentIDs {
			if id == deptID {
				teachers = append(teachers, *t)
				break
			}
		}
	}
	return teachers, nil
}

func (repo *Directory) StudentByID(id string) (directory.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return directory.Student{}, directory.ErrStudentNotFound
}

func (repo *Directory) StudentsByDepartment(deptID string) ([]directory.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]directory.Student, 0)
	for _, s := range repo.db.students {
		if s.DepartmentID == deptID {
			students = append(students, *s)
		}
	}
	return students, nil
}

func (repo *Directory) DepartmentByID(id string) (directory.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.departments[id]; ok {
		return *d, nil
	}
	return directory.Department{}, directory.ErrDepartmentNotFound
}
