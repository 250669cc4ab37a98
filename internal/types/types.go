// Package types holds all shared data structures (models and DTOs) used
// across the application. Keeping them in one place prevents import cycles:
// handlers, storage, validation and utils can all import types without
// depending on each other.
package types

import "strings"

// Professor teaches a course. A professor has no identity of their own beyond
// the first/last name pair stored on the course.
type Professor struct {
	FirstName string
	LastName  string
}

// FullName returns "First Last", trimming the separator when either half is
// missing.
func (p Professor) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// IdentificationImage is a student's ID card scan. Data and FileName are
// always set together; a student without an image has a nil pointer.
type IdentificationImage struct {
	Data     []byte
	FileName string
}

// Student is enrolled in exactly one course. IDs are unique across the whole
// store, not per course.
type Student struct {
	ID                  int
	FirstName           string
	LastName            string
	IdentificationImage *IdentificationImage
}

// Course is a named academic offering with one professor and an ordered
// roster of students.
type Course struct {
	ID         int
	Name       string
	Department string
	Code       string
	Professor  Professor
	Students   []Student
}

// ListQuery describes one page of a listing: filter by Search, order by id,
// then skip Skip entries and return at most Take.
type ListQuery struct {
	Skip   int
	Take   int
	Search string
}

// Blank reports whether the query has no search filter.
func (q ListQuery) Blank() bool {
	return strings.TrimSpace(q.Search) == ""
}

// Matches reports whether search is a case-insensitive substring of the
// course's name, department or professor names. The code is not searched.
func (c Course) Matches(search string) bool {
	return containsFold(search,
		c.Name, c.Department, c.Professor.FirstName, c.Professor.LastName)
}

// Matches reports whether search is a case-insensitive substring of the
// student's first or last name.
func (s Student) Matches(search string) bool {
	return containsFold(search, s.FirstName, s.LastName)
}

func containsFold(search string, fields ...string) bool {
	if strings.TrimSpace(search) == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
