package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/courses-api/internal/types"
)

func TestCourseRequest(t *testing.T) {
	long := strings.Repeat("x", 101)

	cases := []struct {
		name string
		req  types.CourseRequest
		want types.FieldErrors
	}{
		{
			name: "valid",
			req:  types.CourseRequest{Name: "Intro to Computer Vision", Code: "CS-200"},
		},
		{
			name: "exactly 100 chars",
			req:  types.CourseRequest{Name: strings.Repeat("x", 100)},
		},
		{
			name: "missing name",
			req:  types.CourseRequest{Code: "CS-200"},
			want: types.FieldErrors{{Field: "Name", Message: "'Name' is required"}},
		},
		{
			name: "blank name",
			req:  types.CourseRequest{Name: "   \t"},
			want: types.FieldErrors{{Field: "Name", Message: "'Name' is required"}},
		},
		{
			name: "name too long",
			req:  types.CourseRequest{Name: long},
			want: types.FieldErrors{{Field: "Name", Message: "Max length of 'Name' is 100"}},
		},
		{
			name: "several fields in struct order",
			req:  types.CourseRequest{Code: long, ProfessorLastName: long},
			want: types.FieldErrors{
				{Field: "Name", Message: "'Name' is required"},
				{Field: "Code", Message: "Max length of 'Code' is 100"},
				{Field: "ProfessorLastName", Message: "Max length of 'ProfessorLastName' is 100"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Struct(tc.req))
		})
	}
}

func TestStudentRequest(t *testing.T) {
	require.Nil(t, Struct(types.StudentRequest{FirstName: "Jane", LastName: "Doe"}))

	got := Struct(types.StudentRequest{LastName: " "})
	require.Equal(t, types.FieldErrors{
		{Field: "FirstName", Message: "'FirstName' is required"},
		{Field: "LastName", Message: "'LastName' is required"},
	}, got)
}

func TestNonStruct(t *testing.T) {
	got := Struct("not a struct")
	require.Len(t, got, 1)
}
