package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core/schedule"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

// seed loads a couple of demo timetable entries matching the fixture
// directory shipped with the in-memory store.
func (cli *commandLine) seed(db *sqlx.DB) error {
	repo := sqlxrepos.NewEntryRepository(db)

	now := time.Now().UTC()
	entries := []schedule.Entry{
		{
			DepartmentID: "cs",
			TeacherID:    "t-asha",
			Semester:     "1",
			Subject:      "Data Structures",
			Day:          schedule.Monday,
			Interval:     schedule.Interval{Start: 9 * 60, End: 10 * 60},
			Room:         "CS-101",
			CourseCode:   "CS201",
			Credits:      3,
			AcademicYear: "2026-2027",
			Section:      "A",
			SessionType:  "LECTURE",
		},
		{
			DepartmentID: "math",
			TeacherID:    "t-neema",
			Semester:     "1",
			Subject:      "Linear Algebra",
			Day:          schedule.Tuesday,
			Interval:     schedule.Interval{Start: 11 * 60, End: 12*60 + 30},
			Room:         "M-204",
			CourseCode:   "MATH210",
			Credits:      4,
			AcademicYear: "2026-2027",
			Section:      "B",
			SessionType:  "LECTURE",
		},
	}

	for _, e := range entries {
		e.ID = uuid.New().String()
		e.Status = schedule.StatusActive
		e.CreatedAt = now
		e.UpdatedAt = now
		if _, err := repo.CreateEntry(e); err != nil {
			return err
		}
		logger.Printf("seeded timetable entry %s (%s)", e.ID, e.Subject)
	}
	return nil
}
