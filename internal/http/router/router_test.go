package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/courses-api/internal/config"
	"github.com/aanand-mishra/courses-api/internal/http/handlers/student"
	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/storage/memory"
	"github.com/aanand-mishra/courses-api/internal/types"
)

var auth = config.Auth{Username: "caller@zirpl.com", Password: "Pass123!"}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newHandler(t *testing.T) (http.Handler, storage.Storage) {
	t.Helper()
	store := memory.New(storage.SampleCourses()...)
	return New(store, auth, zerolog.Nop()), store
}

func send(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.SetBasicAuth(auth.Username, auth.Password)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func sendJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return send(t, h, method, path, &buf, "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// imageBody builds a multipart body with one file part that carries no
// Content-Type, under the given form field name.
func imageBody(t *testing.T, field, fileName string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestAuthRunsBeforeRouting(t *testing.T) {
	h, _ := newHandler(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/courses"},
		{http.MethodGet, "/courses/1000"},
		{http.MethodDelete, "/courses/1"},
		{http.MethodPost, "/courses/1/students"},
		{http.MethodPut, "/courses/1/students/1/identificationimage"},
		{http.MethodGet, "/nowhere"},
	}
	for _, p := range paths {
		r := httptest.NewRequest(p.method, p.path, strings.NewReader(`{}`))
		r.SetBasicAuth("badusername@zirpl.com", "Pass123!")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestUnknownRoutes(t *testing.T) {
	h, _ := newHandler(t)

	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, "/nowhere", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, "/courses/abc", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, "/courses/1/students/x", nil, "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, send(t, h, http.MethodPatch, "/courses/1", nil, "").Code)
}

func TestListCourses(t *testing.T) {
	h, _ := newHandler(t)

	rec := send(t, h, http.MethodGet, "/courses", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]types.CourseResponse](t, rec)
	require.Len(t, all, 3)
	assert.Equal(t, "John Smith", all[0].ProfessorName)

	rec = send(t, h, http.MethodGet, "/courses?skip=1&take=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]types.CourseResponse](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, 2, page[0].ID)

	rec = send(t, h, http.MethodGet, "/courses?search=computer%20science", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]types.CourseResponse](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "CS-101", found[0].Code)

	rec = send(t, h, http.MethodGet, "/courses?search=nothing-matches", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = send(t, h, http.MethodGet, "/courses?take=lots", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPagingBounds(t *testing.T) {
	h, _ := newHandler(t)

	cases := []struct {
		path string
		ids  []int
	}{
		{"/courses?skip=1&take=9223372036854775807", []int{2, 3}},
		{"/courses?skip=-1&take=-1", nil},
		{"/courses/1/students?skip=1&take=9223372036854775807", []int{2}},
		{"/courses/1/students?skip=-1&take=-1", nil},
	}
	for _, tc := range cases {
		rec := send(t, h, http.MethodGet, tc.path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, tc.path)

		var ids []int
		for _, item := range decode[[]struct {
			ID int `json:"id"`
		}](t, rec) {
			ids = append(ids, item.ID)
		}
		assert.Equal(t, tc.ids, ids, tc.path)
	}
}

func TestGetCourse(t *testing.T) {
	h, _ := newHandler(t)

	rec := send(t, h, http.MethodGet, "/courses/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[types.CourseResponse](t, rec)
	assert.Equal(t, types.CourseResponse{
		ID:                 1,
		Name:               "Introduction to Computer Science",
		Department:         "Computer Science",
		Code:               "CS-101",
		ProfessorFirstName: "John",
		ProfessorLastName:  "Smith",
		ProfessorName:      "John Smith",
	}, c)

	rec = send(t, h, http.MethodGet, "/courses/1000", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "course 1000 not found")
}

func TestAddCourse(t *testing.T) {
	h, store := newHandler(t)

	rec := sendJSON(t, h, http.MethodPost, "/courses", types.CourseRequest{
		Name:               "Intro to Computer Vision",
		Code:               "CS-200",
		Department:         "Computer Science",
		ProfessorFirstName: "Joe",
		ProfessorLastName:  "Black",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "http://example.com/courses/4", rec.Header().Get("Location"))

	created := decode[types.CourseResponse](t, rec)
	assert.Equal(t, 4, created.ID)
	assert.Equal(t, "Joe Black", created.ProfessorName)

	ok, err := store.CourseExists(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddCourseValidation(t *testing.T) {
	h, store := newHandler(t)

	rec := sendJSON(t, h, http.MethodPost, "/courses", types.CourseRequest{
		Name: "   ",
		Code: strings.Repeat("x", 101),
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := decode[struct {
		Status int                 `json:"status"`
		Errors map[string][]string `json:"errors"`
	}](t, rec)
	assert.Equal(t, http.StatusUnprocessableEntity, body.Status)
	assert.Equal(t, []string{"'Name' is required"}, body.Errors["Name"])
	assert.Equal(t, []string{"Max length of 'Code' is 100"}, body.Errors["Code"])

	n, err := store.CourseCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAddCourseMalformedBody(t *testing.T) {
	h, _ := newHandler(t)

	assert.Equal(t, http.StatusBadRequest,
		send(t, h, http.MethodPost, "/courses", strings.NewReader(""), "application/json").Code)
	assert.Equal(t, http.StatusBadRequest,
		send(t, h, http.MethodPost, "/courses", strings.NewReader(`{"name":`), "application/json").Code)
}

func TestUpdateCourse(t *testing.T) {
	h, _ := newHandler(t)

	// Absence is reported before the body is validated.
	rec := sendJSON(t, h, http.MethodPut, "/courses/1000", types.CourseRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = sendJSON(t, h, http.MethodPut, "/courses/1", types.CourseRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = sendJSON(t, h, http.MethodPut, "/courses/1", types.CourseRequest{
		Name:               "Intro to Computer Vision",
		Code:               "CS-200",
		Department:         "Computer Science",
		ProfessorFirstName: "Joe",
		ProfessorLastName:  "Black",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	got := decode[types.CourseResponse](t, send(t, h, http.MethodGet, "/courses/1", nil, ""))
	assert.Equal(t, "CS-200", got.Code)
	assert.Equal(t, "Joe Black", got.ProfessorName)

	// the roster survives an update
	roster := decode[[]types.StudentResponse](t, send(t, h, http.MethodGet, "/courses/1/students", nil, ""))
	assert.Len(t, roster, 2)
}

func TestDeleteCourse(t *testing.T) {
	h, _ := newHandler(t)

	assert.Equal(t, http.StatusNoContent, send(t, h, http.MethodDelete, "/courses/3", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodDelete, "/courses/3", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, "/courses/3/students", nil, "").Code)
}

func TestStudentRoutes(t *testing.T) {
	h, _ := newHandler(t)

	rec := send(t, h, http.MethodGet, "/courses/1/students", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decode[[]types.StudentResponse](t, rec)
	require.Len(t, roster, 2)
	assert.Equal(t, "John", roster[0].FirstName)

	rec = send(t, h, http.MethodGet, "/courses/1/students?search=jane", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.StudentResponse](t, rec), 1)

	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, "/courses/1000/students", nil, "").Code)

	// student 3 belongs to course 2
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, "/courses/1/students/3", nil, "").Code)

	rec = sendJSON(t, h, http.MethodPost, "/courses/1/students", types.StudentRequest{FirstName: "Ann", LastName: "Lee"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "http://example.com/courses/1/students/7", rec.Header().Get("Location"))
	added := decode[types.StudentResponse](t, rec)
	assert.Equal(t, 7, added.ID)

	rec = sendJSON(t, h, http.MethodPost, "/courses/1000/students", types.StudentRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = sendJSON(t, h, http.MethodPost, "/courses/1/students", types.StudentRequest{FirstName: "Ann"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "'LastName' is required")

	rec = sendJSON(t, h, http.MethodPut, "/courses/1/students/7", types.StudentRequest{FirstName: "Anne", LastName: "Lee"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	got := decode[types.StudentResponse](t, send(t, h, http.MethodGet, "/courses/1/students/7", nil, ""))
	assert.Equal(t, types.StudentResponse{ID: 7, FirstName: "Anne", LastName: "Lee"}, got)

	assert.Equal(t, http.StatusNoContent, send(t, h, http.MethodDelete, "/courses/1/students/7", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodDelete, "/courses/1/students/7", nil, "").Code)
}

func TestIdentificationImage(t *testing.T) {
	h, _ := newHandler(t)
	const path = "/courses/1/students/1/identificationimage"

	body, ct := imageBody(t, "", "id.png", pngHeader)
	rec := send(t, h, http.MethodPut, path, body, ct)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	got := decode[types.StudentResponse](t, send(t, h, http.MethodGet, "/courses/1/students/1", nil, ""))
	assert.Equal(t, "id.png", got.IdentificationImageFileName)

	rec = send(t, h, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=id.png`)

	require.Equal(t, http.StatusNoContent, send(t, h, http.MethodDelete, path, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, http.MethodGet, path, nil, "").Code)

	got = decode[types.StudentResponse](t, send(t, h, http.MethodGet, "/courses/1/students/1", nil, ""))
	assert.Empty(t, got.IdentificationImageFileName)

	// clearing an absent image still succeeds
	assert.Equal(t, http.StatusNoContent, send(t, h, http.MethodDelete, path, nil, "").Code)
}

func TestSetIdentificationImageRejects(t *testing.T) {
	h, _ := newHandler(t)
	const path = "/courses/1/students/1/identificationimage"

	t.Run("missing student", func(t *testing.T) {
		body, ct := imageBody(t, "file", "id.png", pngHeader)
		rec := send(t, h, http.MethodPut, "/courses/1/students/1000/identificationimage", body, ct)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		body, ct := imageBody(t, "file", "id.png", nil)
		assert.Equal(t, http.StatusBadRequest, send(t, h, http.MethodPut, path, body, ct).Code)
	})

	t.Run("too large", func(t *testing.T) {
		body, ct := imageBody(t, "file", "id.png", make([]byte, student.MaxImageSize+1))
		assert.Equal(t, http.StatusBadRequest, send(t, h, http.MethodPut, path, body, ct).Code)
	})

	t.Run("exactly the limit", func(t *testing.T) {
		body, ct := imageBody(t, "file", "big.bin", make([]byte, student.MaxImageSize))
		assert.Equal(t, http.StatusNoContent, send(t, h, http.MethodPut, path, body, ct).Code)
	})

	t.Run("no file part", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file here"))
		require.NoError(t, mw.Close())
		assert.Equal(t, http.StatusBadRequest, send(t, h, http.MethodPut, path, &buf, mw.FormDataContentType()).Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := send(t, h, http.MethodPut, path, bytes.NewReader(pngHeader), "image/png")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecovererTurnsPanicsInto500(t *testing.T) {
	h := New(panicStore{Storage: memory.New()}, auth, zerolog.Nop())

	rec := send(t, h, http.MethodGet, "/courses", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type panicStore struct{ storage.Storage }

func (panicStore) ListCourses(_ context.Context, _ types.ListQuery) ([]types.Course, error) {
	panic("boom")
}
