// Package memory provides the default, in-process implementation of
// storage.Storage: an ordered slice of courses guarded by a single RWMutex.
//
// Nothing survives a restart. Every value handed out is a deep copy, so
// callers can never mutate store state behind the lock.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/types"
)

// Memory is the in-memory implementation of storage.Storage.
type Memory struct {
	mu      sync.RWMutex
	courses []*types.Course
}

var _ storage.Storage = (*Memory)(nil)

// New returns a store holding copies of the given courses, ids kept as-is.
// Pass storage.SampleCourses() for the reference data set.
func New(seed ...types.Course) *Memory {
	m := &Memory{courses: make([]*types.Course, 0, len(seed))}
	for _, c := range seed {
		c := cloneCourse(c)
		m.courses = append(m.courses, &c)
	}
	sort.Slice(m.courses, func(i, j int) bool { return m.courses[i].ID < m.courses[j].ID })
	return m
}

func (m *Memory) CourseExists(_ context.Context, id int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.course(id) != nil, nil
}

func (m *Memory) CourseCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courses), nil
}

func (m *Memory) AddCourse(_ context.Context, course types.Course) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cloneCourse(course)
	c.ID = m.maxCourseID() + 1

	next := m.maxStudentID()
	for i := range c.Students {
		next++
		c.Students[i].ID = next
	}

	// Ids only grow, so appending keeps the slice ordered by id.
	m.courses = append(m.courses, &c)
	return c.ID, nil
}

func (m *Memory) DeleteCourse(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.courses {
		if c.ID == id {
			m.courses = append(m.courses[:i], m.courses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("DeleteCourse %d: %w", id, storage.ErrNotFound)
}

func (m *Memory) GetCourse(_ context.Context, id int) (types.Course, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.course(id)
	if c == nil {
		return types.Course{}, false, nil
	}
	return cloneCourse(*c), true, nil
}

func (m *Memory) UpdateCourse(_ context.Context, course types.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.course(course.ID)
	if c == nil {
		return fmt.Errorf("UpdateCourse %d: %w", course.ID, storage.ErrNotFound)
	}
	c.Name = course.Name
	c.Code = course.Code
	c.Department = course.Department
	c.Professor = course.Professor
	return nil
}

func (m *Memory) ListCourses(_ context.Context, q types.ListQuery) ([]types.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*types.Course, 0, len(m.courses))
	for _, c := range m.courses {
		if q.Blank() || c.Matches(q.Search) {
			matched = append(matched, c)
		}
	}

	start, end := storage.Page(len(matched), q)
	page := make([]types.Course, 0, end-start)
	for _, c := range matched[start:end] {
		cp := cloneCourse(*c)
		cp.Students = nil
		page = append(page, cp)
	}
	return page, nil
}

func (m *Memory) StudentExists(_ context.Context, courseID, studentID int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.student(courseID, studentID) != nil, nil
}

func (m *Memory) StudentCount(_ context.Context, courseID int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.course(courseID)
	if c == nil {
		return 0, nil
	}
	return len(c.Students), nil
}

func (m *Memory) AddStudent(_ context.Context, courseID int, student types.Student) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.course(courseID)
	if c == nil {
		return 0, fmt.Errorf("AddStudent to course %d: %w", courseID, storage.ErrNotFound)
	}

	s := cloneStudent(student)
	s.ID = m.maxStudentID() + 1
	c.Students = append(c.Students, s)
	return s.ID, nil
}

func (m *Memory) DeleteStudent(_ context.Context, courseID, studentID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.course(courseID)
	if c != nil {
		for i, s := range c.Students {
			if s.ID == studentID {
				c.Students = append(c.Students[:i], c.Students[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("DeleteStudent %d/%d: %w", courseID, studentID, storage.ErrNotFound)
}

func (m *Memory) GetStudent(_ context.Context, courseID, studentID int) (types.Student, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.student(courseID, studentID)
	if s == nil {
		return types.Student{}, false, nil
	}
	return cloneStudent(*s), true, nil
}

func (m *Memory) UpdateStudent(_ context.Context, courseID int, student types.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.student(courseID, student.ID)
	if s == nil {
		return fmt.Errorf("UpdateStudent %d/%d: %w", courseID, student.ID, storage.ErrNotFound)
	}
	s.FirstName = student.FirstName
	s.LastName = student.LastName
	return nil
}

func (m *Memory) ListStudents(_ context.Context, courseID int, q types.ListQuery) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.course(courseID)
	if c == nil {
		return []types.Student{}, nil
	}

	matched := make([]types.Student, 0, len(c.Students))
	for _, s := range c.Students {
		if q.Blank() || s.Matches(q.Search) {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start, end := storage.Page(len(matched), q)
	page := make([]types.Student, 0, end-start)
	for _, s := range matched[start:end] {
		page = append(page, cloneStudent(s))
	}
	return page, nil
}

func (m *Memory) SetIdentificationImage(_ context.Context, courseID, studentID int, image *types.IdentificationImage) error {
	if image != nil && (len(image.Data) == 0 || image.FileName == "") {
		return storage.ErrIncompleteImage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.student(courseID, studentID)
	if s == nil {
		return fmt.Errorf("SetIdentificationImage %d/%d: %w", courseID, studentID, storage.ErrNotFound)
	}
	s.IdentificationImage = cloneImage(image)
	return nil
}

// course must be called with mu held.
func (m *Memory) course(id int) *types.Course {
	for _, c := range m.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// student must be called with mu held.
func (m *Memory) student(courseID, studentID int) *types.Student {
	c := m.course(courseID)
	if c == nil {
		return nil
	}
	for i := range c.Students {
		if c.Students[i].ID == studentID {
			return &c.Students[i]
		}
	}
	return nil
}

func (m *Memory) maxCourseID() int {
	highest := 0
	for _, c := range m.courses {
		highest = max(highest, c.ID)
	}
	return highest
}

// maxStudentID spans every course: student ids are store-global.
func (m *Memory) maxStudentID() int {
	highest := 0
	for _, c := range m.courses {
		for _, s := range c.Students {
			highest = max(highest, s.ID)
		}
	}
	return highest
}

func cloneCourse(c types.Course) types.Course {
	if c.Students != nil {
		students := make([]types.Student, len(c.Students))
		for i, s := range c.Students {
			students[i] = cloneStudent(s)
		}
		c.Students = students
	}
	return c
}

func cloneStudent(s types.Student) types.Student {
	s.IdentificationImage = cloneImage(s.IdentificationImage)
	return s
}

func cloneImage(img *types.IdentificationImage) *types.IdentificationImage {
	if img == nil {
		return nil
	}
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	return &types.IdentificationImage{Data: data, FileName: img.FileName}
}
