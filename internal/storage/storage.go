// Package storage defines the Storage interface: the contract every backend
// (in-memory, SQLite) must satisfy to serve the courses API.
//
// Handlers depend only on this interface, so a backend is chosen once in
// main.go and nothing else changes.
//
// Absence is ordinary control flow here: Get* methods report it through a
// found flag instead of an error, and callers are expected to check
// CourseExists/StudentExists before Delete*/Update*. Those mutators still
// return ErrNotFound rather than corrupting state when the check was skipped.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/courses-api/internal/types"
)

var (
	// ErrNotFound is returned by mutators addressed at a course or student
	// that does not exist.
	ErrNotFound = errors.New("storage: course or student not found")

	// ErrIncompleteImage is returned when an identification image is set
	// with empty bytes or an empty file name.
	ErrIncompleteImage = errors.New("storage: identification image needs both data and file name")
)

// Storage is the data-access contract for courses and their students.
//
// Ids: a new course gets max(course ids)+1 and a new student gets
// max(student ids across all courses)+1, recomputed on every add.
type Storage interface {
	// CourseExists reports whether a course with id exists.
	CourseExists(ctx context.Context, id int) (bool, error)

	// CourseCount returns the number of courses.
	CourseCount(ctx context.Context) (int, error)

	// AddCourse stores course under a newly assigned id and returns it.
	// Any students carried by course get fresh global student ids.
	AddCourse(ctx context.Context, course types.Course) (int, error)

	// DeleteCourse removes a course and its roster.
	DeleteCourse(ctx context.Context, id int) error

	// GetCourse returns the course with its students. found is false when
	// no such course exists.
	GetCourse(ctx context.Context, id int) (course types.Course, found bool, err error)

	// UpdateCourse replaces name, code, department and professor of the
	// course identified by course.ID.
	UpdateCourse(ctx context.Context, course types.Course) error

	// ListCourses returns one page of courses ordered by id. Students are
	// not populated.
	ListCourses(ctx context.Context, q types.ListQuery) ([]types.Course, error)

	// StudentExists reports whether studentID is enrolled in courseID.
	StudentExists(ctx context.Context, courseID, studentID int) (bool, error)

	// StudentCount returns the roster size of courseID (0 if absent).
	StudentCount(ctx context.Context, courseID int) (int, error)

	// AddStudent enrols student in courseID under a new global id.
	AddStudent(ctx context.Context, courseID int, student types.Student) (int, error)

	// DeleteStudent removes studentID from courseID.
	DeleteStudent(ctx context.Context, courseID, studentID int) error

	// GetStudent returns one enrolled student, image included.
	GetStudent(ctx context.Context, courseID, studentID int) (student types.Student, found bool, err error)

	// UpdateStudent replaces first and last name of student.ID in courseID.
	UpdateStudent(ctx context.Context, courseID int, student types.Student) error

	// ListStudents returns one page of the roster of courseID, ordered by id.
	ListStudents(ctx context.Context, courseID int, q types.ListQuery) ([]types.Student, error)

	// SetIdentificationImage replaces a student's image. A nil image clears
	// both data and file name.
	SetIdentificationImage(ctx context.Context, courseID, studentID int, image *types.IdentificationImage) error
}

// Page applies skip/take to n already-filtered, id-ordered entries and
// returns the [start, end) bounds. Negative skip or take count as zero.
func Page(n int, q types.ListQuery) (start, end int) {
	skip, take := max(q.Skip, 0), max(q.Take, 0)
	start = min(skip, n)
	end = start + min(take, n-start)
	return start, end
}
