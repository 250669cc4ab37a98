// Package student contains the HTTP handlers for Students, which live under
// a course: /courses/{courseID}/students/...
//
// Same factory pattern as the course handlers: each exported function takes
// the storage once and returns the per-request handler.
//
// Every route first resolves the addressed course (and student), answering
// 404 before the body is looked at.
package student

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/types"
	"github.com/aanand-mishra/courses-api/internal/utils/request"
	"github.com/aanand-mishra/courses-api/internal/utils/response"
	"github.com/aanand-mishra/courses-api/internal/validate"
)

// DefaultTake is the roster page size when ?take= is absent.
const DefaultTake = 5

// ─────────────────────────────────────────────────────────────────────────────
// List handles GET /courses/{courseID}/students?skip=&take=&search=
//
// Success response (200 OK):
//
//	[ { "id": 1, "firstName": "John", "lastName": "Doe" } ]
//
// Error responses:
//
//	400 Bad Request: skip or take is not an integer
//	404 Not Found: no such course
//
// ─────────────────────────────────────────────────────────────────────────────
func List(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := resolveCourse(w, r, store)
		if !ok {
			return
		}

		q, err := request.ListQuery(r, DefaultTake)
		if err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}

		students, err := store.ListStudents(r.Context(), courseID, q)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("course_id", courseID).Msg("error listing students")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.NewStudentResponses(students))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Get handles GET /courses/{courseID}/students/{studentID}
//
// Success response (200 OK):
//
//	{ "id": 1, "firstName": "John", "lastName": "Doe",
//	  "identificationImageFileName": "id.jpg" }
//
// The file name is omitted when the student has no image.
// ─────────────────────────────────────────────────────────────────────────────
func Get(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := loadStudent(w, r, store)
		if !ok {
			return
		}
		response.WriteJSON(w, http.StatusOK, types.NewStudentResponse(s))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Add handles POST /courses/{courseID}/students
//
// Request body:
//
//	{ "firstName": "Ann", "lastName": "Lee" }
//
// Success response (201 Created) with
// Location: <scheme>://<host>/courses/{courseID}/students/{studentID}.
//
// Error responses:
//
//	404 Not Found: no such course
//	400 Bad Request: empty or malformed body
//	422 Unprocessable Entity: validation failed
//
// ─────────────────────────────────────────────────────────────────────────────
func Add(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		courseID, ok := resolveCourse(w, r, store)
		if !ok {
			return
		}

		var req types.StudentRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}
		if errs := validate.Struct(req); errs != nil {
			response.ValidationError(w, r.URL.Path, errs)
			return
		}

		id, err := store.AddStudent(r.Context(), courseID, req.Student())
		if err != nil {
			log.Error().Err(err).Int("course_id", courseID).Msg("error adding student")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		s, _, err := store.GetStudent(r.Context(), courseID, id)
		if err != nil {
			log.Error().Err(err).Int("student_id", id).Msg("error reading back student")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		log.Info().Int("course_id", courseID).Int("student_id", id).Msg("student created")
		location := request.ResourceURL(r, fmt.Sprintf("/courses/%d/students/%d", courseID, id))
		response.Created(w, location, types.NewStudentResponse(s))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /courses/{courseID}/students/{studentID}
// Replaces first and last name. 204 on success.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, studentID, ok := resolveStudent(w, r, store)
		if !ok {
			return
		}

		var req types.StudentRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}
		if errs := validate.Struct(req); errs != nil {
			response.ValidationError(w, r.URL.Path, errs)
			return
		}

		s := req.Student()
		s.ID = studentID
		if err := store.UpdateStudent(r.Context(), courseID, s); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("student_id", studentID).Msg("error updating student")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		response.NoContent(w)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /courses/{courseID}/students/{studentID}
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, studentID, ok := resolveStudent(w, r, store)
		if !ok {
			return
		}

		if err := store.DeleteStudent(r.Context(), courseID, studentID); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("student_id", studentID).Msg("error deleting student")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().Int("course_id", courseID).Int("student_id", studentID).Msg("student deleted")
		response.NoContent(w)
	}
}

// resolveCourse parses {courseID} and checks it exists, writing 400/404/500
// itself when it returns false.
func resolveCourse(w http.ResponseWriter, r *http.Request, store storage.Storage) (int, bool) {
	courseID, err := request.PathInt(r, "courseID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return 0, false
	}

	ok, err := store.CourseExists(r.Context(), courseID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("course_id", courseID).Msg("error checking course")
		response.Error(w, http.StatusInternalServerError, err)
		return 0, false
	}
	if !ok {
		response.Error(w, http.StatusNotFound, fmt.Errorf("course %d not found", courseID))
		return 0, false
	}
	return courseID, true
}

// resolveStudent is resolveCourse plus {studentID} enrolment.
func resolveStudent(w http.ResponseWriter, r *http.Request, store storage.Storage) (courseID, studentID int, ok bool) {
	courseID, ok = resolveCourse(w, r, store)
	if !ok {
		return 0, 0, false
	}

	studentID, err := request.PathInt(r, "studentID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return 0, 0, false
	}

	exists, err := store.StudentExists(r.Context(), courseID, studentID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("student_id", studentID).Msg("error checking student")
		response.Error(w, http.StatusInternalServerError, err)
		return 0, 0, false
	}
	if !exists {
		response.Error(w, http.StatusNotFound,
			fmt.Errorf("student %d not found in course %d", studentID, courseID))
		return 0, 0, false
	}
	return courseID, studentID, true
}

// loadStudent resolves and fetches the addressed student.
func loadStudent(w http.ResponseWriter, r *http.Request, store storage.Storage) (types.Student, bool) {
	courseID, studentID, ok := resolveStudent(w, r, store)
	if !ok {
		return types.Student{}, false
	}

	s, found, err := store.GetStudent(r.Context(), courseID, studentID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("student_id", studentID).Msg("error getting student")
		response.Error(w, http.StatusInternalServerError, err)
		return types.Student{}, false
	}
	if !found {
		// Removed between the existence check and the read.
		response.Error(w, http.StatusNotFound,
			fmt.Errorf("student %d not found in course %d", studentID, courseID))
		return types.Student{}, false
	}
	return s, true
}
