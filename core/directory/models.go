package directory

import "errors"

var (
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrDepartmentNotFound = errors.New("department not found")
)

type (
	// Teacher may belong to several departments at once.
	Teacher struct {
		ID            string   `json:"id"`
		FullName      string   `json:"full_name"`
		Email         string   `json:"email"`
		DepartmentIDs []string `json:"department_ids"`
	}

	Student struct {
		ID           string `json:"id"`
		FullName     string `json:"full_name"`
		Email        string `json:"email"`
		DepartmentID string `json:"department_id"`
	}

	Department struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

// Read-only lookup collaborators. The full teacher/student/department CRUD
// lives elsewhere; this subsystem only ever resolves memberships.
type (
	TeacherDirectory interface {
		TeacherByID(id string) (Teacher, error)
		TeachersByDepartment(deptID string) ([]Teacher, error)
	}

	StudentDirectory interface {
		StudentByID(id string) (Student, error)
		StudentsByDepartment(deptID string) ([]Student, error)
	}

	DepartmentDirectory interface {
		DepartmentByID(id string) (Department, error)
	}

	Directory interface {
		TeacherDirectory
		StudentDirectory
		DepartmentDirectory
	}
)
