// Package course contains the HTTP handlers for the Course resource.
//
// Every handler is a factory: it receives the storage once at route
// registration and returns the http.HandlerFunc that serves each request.
//
//	r.Get("/courses/{courseID}", course.Get(store))
//
// Authentication has already happened by the time any of these run.
package course

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

// DefaultTake is the page size when ?take= is absent.
const DefaultTake = 25

// ─────────────────────────────────────────────────────────────────────────────
// List handles GET /courses?skip=&take=&search=
//
// Success response (200 OK), possibly empty but never null:
//
//	[ { "id": 1, "name": "Introduction to Computer Science", ... } ]
//
// Error responses:
//
//	400 Bad Request: skip or take is not an integer
//	500 Internal Error: storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func List(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		q, err := request.ListQuery(r, DefaultTake)
		if err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}

		courses, err := store.ListCourses(r.Context(), q)
		if err != nil {
			log.Error().Err(err).Msg("error listing courses")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.NewCourseResponses(courses))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Get handles GET /courses/{courseID}
//
// Success response (200 OK):
//
//	{ "id": 1, "name": "...", "department": "...", "code": "CS-101",
//	  "professorFirstName": "John", "professorLastName": "Smith",
//	  "professorName": "John Smith" }
//
// Error responses:
//
//	404 Not Found: no such course
//
// ─────────────────────────────────────────────────────────────────────────────
func Get(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := courseID(w, r)
		if !ok {
			return
		}

		c, found, err := store.GetCourse(r.Context(), id)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("course_id", id).Msg("error getting course")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}
		if !found {
			notFound(w, id)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.NewCourseResponse(c))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Add handles POST /courses
//
// Request body:
//
//	{ "name": "Intro to Computer Vision", "code": "CS-200",
//	  "department": "Computer Science",
//	  "professorFirstName": "Joe", "professorLastName": "Black" }
//
// Success response (201 Created) with Location: <scheme>://<host>/courses/{id}
// and the created course as body.
//
// Error responses:
//
//	400 Bad Request: empty or malformed body
//	422 Unprocessable Entity: validation failed (nothing is stored)
//
// ─────────────────────────────────────────────────────────────────────────────
func Add(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		var req types.CourseRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}
		if errs := validate.Struct(req); errs != nil {
			log.Debug().Strs("fields", errs.Fields()).Msg("course failed validation")
			response.ValidationError(w, r.URL.Path, errs)
			return
		}

		id, err := store.AddCourse(r.Context(), req.Course())
		if err != nil {
			log.Error().Err(err).Msg("error adding course")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		c, _, err := store.GetCourse(r.Context(), id)
		if err != nil {
			log.Error().Err(err).Int("course_id", id).Msg("error reading back course")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		log.Info().Int("course_id", id).Msg("course created")
		response.Created(w, request.ResourceURL(r, fmt.Sprintf("/courses/%d", id)), types.NewCourseResponse(c))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /courses/{courseID}
// Replaces name, code, department and professor. The roster is untouched.
//
// Success response: 204 No Content.
//
// Error responses:
//
//	404 Not Found: no such course (checked before the body)
//	400 Bad Request: empty or malformed body
//	422 Unprocessable Entity: validation failed
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		id, ok := courseID(w, r)
		if !ok {
			return
		}
		if !exists(w, r, store, id) {
			return
		}

		var req types.CourseRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}
		if errs := validate.Struct(req); errs != nil {
			response.ValidationError(w, r.URL.Path, errs)
			return
		}

		c := req.Course()
		c.ID = id
		if err := store.UpdateCourse(r.Context(), c); err != nil {
			log.Error().Err(err).Int("course_id", id).Msg("error updating course")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		log.Info().Int("course_id", id).Msg("course updated")
		response.NoContent(w)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /courses/{courseID}
// Removes the course and its whole roster. 204 on success, 404 if absent.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := courseID(w, r)
		if !ok {
			return
		}
		if !exists(w, r, store, id) {
			return
		}

		if err := store.DeleteCourse(r.Context(), id); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("course_id", id).Msg("error deleting course")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().Int("course_id", id).Msg("course deleted")
		response.NoContent(w)
	}
}

func courseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := request.PathInt(r, "courseID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

// exists writes 404 (or 500) and returns false unless course id exists.
func exists(w http.ResponseWriter, r *http.Request, store storage.Storage, id int) bool {
	ok, err := store.CourseExists(r.Context(), id)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("course_id", id).Msg("error checking course")
		response.Error(w, http.StatusInternalServerError, err)
		return false
	}
	if !ok {
		notFound(w, id)
		return false
	}
	return true
}

func notFound(w http.ResponseWriter, id int) {
	response.Error(w, http.StatusNotFound, fmt.Errorf("course %d not found", id))
}
