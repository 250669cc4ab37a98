// Package router assembles the chi router: middleware first, then the
// course and student routes.
package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/courses-api/internal/config"
	"github.com/aanand-mishra/courses-api/internal/http/handlers/course"
	"github.com/aanand-mishra/courses-api/internal/http/handlers/student"
	"github.com/aanand-mishra/courses-api/internal/http/middleware"
	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/utils/response"
)

// New returns the API handler.
//
// Route table:
//
//	GET    /courses                                   → list courses
//	POST   /courses                                   → add a course
//	GET    /courses/{courseID}                        → get one course
//	PUT    /courses/{courseID}                        → update a course
//	DELETE /courses/{courseID}                        → delete a course
//	GET    /courses/{courseID}/students               → list the roster
//	POST   /courses/{courseID}/students               → enrol a student
//	GET    /courses/{courseID}/students/{studentID}   → get one student
//	PUT    /courses/{courseID}/students/{studentID}   → update a student
//	DELETE /courses/{courseID}/students/{studentID}   → remove a student
//	GET    .../{studentID}/identificationimage        → download the image
//	PUT    .../{studentID}/identificationimage        → upload the image
//	DELETE .../{studentID}/identificationimage        → clear the image
//
// Authentication runs before routing, so a bad credential gets 401 on any
// path, known or not.
func New(store storage.Storage, auth config.Auth, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.BasicAuth(auth))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path))
	})

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", course.List(store))
		r.Post("/", course.Add(store))

		r.Route("/{courseID:[0-9]+}", func(r chi.Router) {
			r.Get("/", course.Get(store))
			r.Put("/", course.Update(store))
			r.Delete("/", course.Delete(store))

			r.Route("/students", func(r chi.Router) {
				r.Get("/", student.List(store))
				r.Post("/", student.Add(store))

				r.Route("/{studentID:[0-9]+}", func(r chi.Router) {
					r.Get("/", student.Get(store))
					r.Put("/", student.Update(store))
					r.Delete("/", student.Delete(store))

					r.Get("/identificationimage", student.GetImage(store))
					r.Put("/identificationimage", student.SetImage(store))
					r.Delete("/identificationimage", student.DeleteImage(store))
				})
			})
		})
	})

	return r
}
