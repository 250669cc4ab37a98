// Package storagetest is a behavioural test suite for storage.Storage. Each
// backend's tests call Run with a constructor for a fresh, empty store.
package storagetest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/types"
)

// Run exercises every Storage operation against stores built by newStore.
// newStore must return an empty store each time it is called.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Helper()

	seeded := func(t *testing.T) storage.Storage {
		t.Helper()
		s := newStore(t)
		ok, err := storage.Seed(context.Background(), s)
		require.NoError(t, err)
		require.True(t, ok)
		return s
	}

	t.Run("SeedAssignsReferenceIDs", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		for _, want := range storage.SampleCourses() {
			got, found, err := s.GetCourse(ctx, want.ID)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, want.Name, got.Name)
			require.Equal(t, want.Professor, got.Professor)
			require.Len(t, got.Students, len(want.Students))
			for i := range want.Students {
				require.Equal(t, want.Students[i].ID, got.Students[i].ID)
				require.Equal(t, want.Students[i].FirstName, got.Students[i].FirstName)
			}
		}

		again, err := storage.Seed(ctx, s)
		require.NoError(t, err)
		require.False(t, again, "seeding a non-empty store is a no-op")
	})

	t.Run("AddCourseAssignsMaxPlusOne", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		id, err := s.AddCourse(ctx, types.Course{
			Name:       "Intro to Computer Vision",
			Code:       "CS-200",
			Department: "Computer Science",
			Professor:  types.Professor{FirstName: "Joe", LastName: "Black"},
		})
		require.NoError(t, err)
		require.Equal(t, 4, id)

		got, found, err := s.GetCourse(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "Intro to Computer Vision", got.Name)
		require.Equal(t, "CS-200", got.Code)
		require.Equal(t, "Computer Science", got.Department)
		require.Equal(t, types.Professor{FirstName: "Joe", LastName: "Black"}, got.Professor)
		require.Empty(t, got.Students)

		n, err := s.CourseCount(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, n)
	})

	t.Run("AddCourseIntoEmptyStoreStartsAtOne", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		id, err := s.AddCourse(ctx, types.Course{Name: "First"})
		require.NoError(t, err)
		require.Equal(t, 1, id)
	})

	t.Run("AddCourseWithStudentsUsesGlobalStudentIDs", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		id, err := s.AddCourse(ctx, types.Course{
			Name: "Chemistry",
			Students: []types.Student{
				{FirstName: "Ann", LastName: "Lee"},
				{FirstName: "Bo", LastName: "Kim"},
			},
		})
		require.NoError(t, err)

		got, _, err := s.GetCourse(ctx, id)
		require.NoError(t, err)
		require.Len(t, got.Students, 2)
		require.Equal(t, 7, got.Students[0].ID)
		require.Equal(t, 8, got.Students[1].ID)
	})

	t.Run("GetCourseAbsentIsNotAnError", func(t *testing.T) {
		s := seeded(t)

		_, found, err := s.GetCourse(context.Background(), 1000)
		require.NoError(t, err)
		require.False(t, found)

		exists, err := s.CourseExists(context.Background(), 1000)
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("UpdateCourse", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		err := s.UpdateCourse(ctx, types.Course{
			ID:         1,
			Name:       "Renamed",
			Code:       "CS-102",
			Department: "CS",
			Professor:  types.Professor{FirstName: "Ada", LastName: "Lovelace"},
		})
		require.NoError(t, err)

		got, _, err := s.GetCourse(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.Name)
		require.Equal(t, "CS-102", got.Code)
		require.Equal(t, "CS", got.Department)
		require.Equal(t, "Ada Lovelace", got.Professor.FullName())
		require.Len(t, got.Students, 2, "roster untouched by update")

		err = s.UpdateCourse(ctx, types.Course{ID: 1000, Name: "x"})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteCourseTwice", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		require.NoError(t, s.DeleteCourse(ctx, 2))
		exists, err := s.CourseExists(ctx, 2)
		require.NoError(t, err)
		require.False(t, exists)

		err = s.DeleteCourse(ctx, 2)
		require.ErrorIs(t, err, storage.ErrNotFound)

		exists, err = s.StudentExists(ctx, 2, 3)
		require.NoError(t, err)
		require.False(t, exists, "roster goes with the course")
	})

	t.Run("ListCourses", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		all, err := s.ListCourses(ctx, types.ListQuery{Take: 25})
		require.NoError(t, err)
		require.Equal(t, []int{1, 2, 3}, courseIDs(all))
		for _, c := range all {
			require.Empty(t, c.Students)
		}

		page, err := s.ListCourses(ctx, types.ListQuery{Skip: 1, Take: 1})
		require.NoError(t, err)
		require.Equal(t, []int{2}, courseIDs(page))

		past, err := s.ListCourses(ctx, types.ListQuery{Skip: 10, Take: 5})
		require.NoError(t, err)
		require.Empty(t, past)

		none, err := s.ListCourses(ctx, types.ListQuery{Take: 0})
		require.NoError(t, err)
		require.Empty(t, none)
	})

	t.Run("ListCoursesSearch", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		cases := []struct {
			search string
			want   []int
		}{
			{"Computer", []int{1}},
			{"computer", []int{1}},
			{"  ", []int{1, 2, 3}},
			{"life sci", []int{2}},
			{"june", []int{3}},
			{"SMITH", []int{1, 2, 3}},
			{"introduction", []int{1, 2}},
			{"CS-101", nil}, // code is not searched
			{"100%", nil},
			{"zzz", nil},
		}
		for _, tc := range cases {
			got, err := s.ListCourses(ctx, types.ListQuery{Take: 25, Search: tc.search})
			require.NoError(t, err)
			require.Equal(t, tc.want, courseIDs(got), "search %q", tc.search)
		}

		got, err := s.ListCourses(ctx, types.ListQuery{Skip: 1, Take: 1, Search: "Introduction"})
		require.NoError(t, err)
		require.Equal(t, []int{2}, courseIDs(got), "skip/take after filtering")
	})

	t.Run("Students", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		n, err := s.StudentCount(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		id, err := s.AddStudent(ctx, 1, types.Student{FirstName: "New", LastName: "Kid"})
		require.NoError(t, err)
		require.Equal(t, 7, id, "student ids are drawn from the global maximum")

		got, found, err := s.GetStudent(ctx, 1, id)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "New", got.FirstName)
		require.Equal(t, "Kid", got.LastName)
		require.Nil(t, got.IdentificationImage)

		exists, err := s.StudentExists(ctx, 2, id)
		require.NoError(t, err)
		require.False(t, exists, "student is addressed through its own course only")

		_, found, err = s.GetStudent(ctx, 2, id)
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, s.UpdateStudent(ctx, 1, types.Student{ID: id, FirstName: "Old", LastName: "Hand"}))
		got, _, err = s.GetStudent(ctx, 1, id)
		require.NoError(t, err)
		require.Equal(t, "Old", got.FirstName)
		require.Equal(t, "Hand", got.LastName)

		require.ErrorIs(t, s.UpdateStudent(ctx, 2, types.Student{ID: id}), storage.ErrNotFound)

		require.NoError(t, s.DeleteStudent(ctx, 1, id))
		require.ErrorIs(t, s.DeleteStudent(ctx, 1, id), storage.ErrNotFound)

		_, err = s.AddStudent(ctx, 1000, types.Student{FirstName: "No", LastName: "Course"})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListStudents", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		all, err := s.ListStudents(ctx, 2, types.ListQuery{Take: 5})
		require.NoError(t, err)
		require.Equal(t, []int{3, 4}, studentIDs(all))

		page, err := s.ListStudents(ctx, 2, types.ListQuery{Skip: 1, Take: 5})
		require.NoError(t, err)
		require.Equal(t, []int{4}, studentIDs(page))

		found, err := s.ListStudents(ctx, 2, types.ListQuery{Take: 5, Search: "KAR"})
		require.NoError(t, err)
		require.Equal(t, []int{4}, studentIDs(found))

		byLast, err := s.ListStudents(ctx, 2, types.ListQuery{Take: 5, Search: "doe"})
		require.NoError(t, err)
		require.Equal(t, []int{3, 4}, studentIDs(byLast))

		none, err := s.ListStudents(ctx, 2, types.ListQuery{Take: 5, Search: "John"})
		require.NoError(t, err)
		require.Empty(t, none, "search is scoped to the course")
	})

	t.Run("PagingBounds", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		cases := []struct {
			q        types.ListQuery
			courses  []int
			students []int
		}{
			{types.ListQuery{Skip: -1, Take: -1}, nil, nil},
			{types.ListQuery{Skip: -1, Take: 2}, []int{1, 2}, []int{3, 4}},
			{types.ListQuery{Skip: 1, Take: math.MaxInt}, []int{2, 3}, []int{4}},
			{types.ListQuery{Skip: math.MaxInt, Take: math.MaxInt}, nil, nil},
		}
		for _, tc := range cases {
			courses, err := s.ListCourses(ctx, tc.q)
			require.NoError(t, err)
			require.Equal(t, tc.courses, courseIDs(courses), "courses %+v", tc.q)

			students, err := s.ListStudents(ctx, 2, tc.q)
			require.NoError(t, err)
			require.Equal(t, tc.students, studentIDs(students), "students %+v", tc.q)
		}

		// The full roster stays reachable through GetCourse.
		got, _, err := s.GetCourse(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, []int{3, 4}, studentIDs(got.Students))
	})

	t.Run("IdentificationImage", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		img := &types.IdentificationImage{Data: []byte{0xff, 0xd8, 0xff, 0x00, 0x01}, FileName: "TestImage.jpg"}
		require.NoError(t, s.SetIdentificationImage(ctx, 1, 1, img))

		// The store must not alias the caller's buffer.
		img.Data[0] = 0

		got, _, err := s.GetStudent(ctx, 1, 1)
		require.NoError(t, err)
		require.NotNil(t, got.IdentificationImage)
		require.Equal(t, []byte{0xff, 0xd8, 0xff, 0x00, 0x01}, got.IdentificationImage.Data)
		require.Equal(t, "TestImage.jpg", got.IdentificationImage.FileName)

		require.NoError(t, s.SetIdentificationImage(ctx, 1, 1, nil))
		got, _, err = s.GetStudent(ctx, 1, 1)
		require.NoError(t, err)
		require.Nil(t, got.IdentificationImage)

		err = s.SetIdentificationImage(ctx, 1, 1, &types.IdentificationImage{FileName: "empty.jpg"})
		require.ErrorIs(t, err, storage.ErrIncompleteImage)

		err = s.SetIdentificationImage(ctx, 1, 1, &types.IdentificationImage{Data: []byte{1}})
		require.ErrorIs(t, err, storage.ErrIncompleteImage)

		err = s.SetIdentificationImage(ctx, 1000, 1000, img)
		require.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func courseIDs(cs []types.Course) []int {
	var ids []int
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

func studentIDs(ss []types.Student) []int {
	var ids []int
	for _, s := range ss {
		ids = append(ids, s.ID)
	}
	return ids
}
