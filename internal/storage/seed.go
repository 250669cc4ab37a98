package storage

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/courses-api/internal/types"
)

// SampleCourses returns the reference data set: three courses with two
// students each, ids 1–3 and 1–6. Every call returns fresh values.
func SampleCourses() []types.Course {
	return []types.Course{
		{
			ID:         1,
			Code:       "CS-101",
			Department: "Computer Science",
			Name:       "Introduction to Computer Science",
			Professor:  types.Professor{FirstName: "John", LastName: "Smith"},
			Students: []types.Student{
				{ID: 1, FirstName: "John", LastName: "Doe"},
				{ID: 2, FirstName: "Jane", LastName: "Doe"},
			},
		},
		{
			ID:         2,
			Code:       "BIO-101",
			Department: "Life Sciences",
			Name:       "Introduction to Biology",
			Professor:  types.Professor{FirstName: "Jane", LastName: "Smith"},
			Students: []types.Student{
				{ID: 3, FirstName: "Ray", LastName: "Doe"},
				{ID: 4, FirstName: "Karen", LastName: "Doe"},
			},
		},
		{
			ID:         3,
			Code:       "ENG-101",
			Department: "Languages",
			Name:       "Writing",
			Professor:  types.Professor{FirstName: "June", LastName: "Smith"},
			Students: []types.Student{
				{ID: 5, FirstName: "Jim", LastName: "Doe"},
				{ID: 6, FirstName: "Erin", LastName: "Doe"},
			},
		},
	}
}

// Seed loads SampleCourses into s when it holds no courses yet. Ids come out
// identical to SampleCourses because the store assigns max+1 in order.
func Seed(ctx context.Context, s Storage) (bool, error) {
	n, err := s.CourseCount(ctx)
	if err != nil {
		return false, fmt.Errorf("Seed: count courses: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	for _, c := range SampleCourses() {
		if _, err := s.AddCourse(ctx, c); err != nil {
			return false, fmt.Errorf("Seed: add course %q: %w", c.Code, err)
		}
	}
	return true, nil
}
