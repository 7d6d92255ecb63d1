package inmemdb

import (
	"github.com/trezcool/ratiba/core/directory"
)

// SeedDirectory loads a small demo school: two departments, their teachers
// and a handful of students.
func SeedDirectory(dir *Directory) {
	dir.AddDepartment(directory.Department{ID: "cs", Name: "Computer Science"})
	dir.AddDepartment(directory.Department{ID: "math", Name: "Mathematics"})

	dir.AddTeacher(directory.Teacher{
		ID:            "t-asha",
		FullName:      "Asha Mwangi",
		Email:         "asha.mwangi@school.test",
		DepartmentIDs: []string{"cs"},
	})
	dir.AddTeacher(directory.Teacher{
		ID:            "t-juma",
		FullName:      "Juma Okello",
		Email:         "juma.okello@school.test",
		DepartmentIDs: []string{"cs", "math"},
	})
	dir.AddTeacher(directory.Teacher{
		ID:            "t-neema",
		FullName:      "Neema Abdi",
		Email:         "neema.abdi@school.test",
		DepartmentIDs: []string{"math"},
	})

	dir.AddStudent(directory.Student{
		ID:           "s-baraka",
		FullName:     "Baraka Otieno",
		Email:        "baraka.otieno@school.test",
		DepartmentID: "cs",
	})
	dir.AddStudent(directory.Student{
		ID:           "s-zuri",
		FullName:     "Zuri Kamau",
		Email:        "zuri.kamau@school.test",
		DepartmentID: "cs",
	})
	dir.AddStudent(directory.Student{
		ID:           "s-imani",
		FullName:     "Imani Njoroge",
		Email:        "imani.njoroge@school.test",
		DepartmentID: "math",
	})
}
