package student

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/types"
	"github.com/aanand-mishra/courses-api/internal/utils/response"
)

// MaxImageSize is the largest identification image accepted, in bytes.
const MaxImageSize = 16 << 20

// multipart headers and boundaries on top of the file itself
const formOverhead = 1 << 20

var (
	errNoFilePart    = errors.New("request must contain a file part")
	errEmptyImage    = errors.New("identification image is empty")
	errImageTooLarge = fmt.Errorf("identification image exceeds %d bytes", MaxImageSize)
	errNoImage       = errors.New("student has no identification image")
	errNotMultipart  = errors.New("request must be multipart/form-data")
)

// ─────────────────────────────────────────────────────────────────────────────
// SetImage handles PUT /courses/{courseID}/students/{studentID}/identificationimage
//
// Body: multipart/form-data with one file part. The form field name is not
// significant and the part needs no Content-Type.
//
// Success response: 204 No Content. Bytes and file name are replaced together.
//
// Error responses:
//
//	404 Not Found: no such course or student
//	400 Bad Request: not multipart, no file part, empty file, over 16 MiB
//
// ─────────────────────────────────────────────────────────────────────────────
func SetImage(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, studentID, ok := resolveStudent(w, r, store)
		if !ok {
			return
		}

		image, err := readImage(w, r)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Int("student_id", studentID).Msg("rejected identification image")
			response.Error(w, http.StatusBadRequest, err)
			return
		}

		if err := store.SetIdentificationImage(r.Context(), courseID, studentID, &image); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("student_id", studentID).Msg("error storing identification image")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().
			Int("student_id", studentID).
			Str("file_name", image.FileName).
			Int("size", len(image.Data)).
			Msg("identification image set")
		response.NoContent(w)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetImage handles GET /courses/{courseID}/students/{studentID}/identificationimage
//
// Success response (200 OK): the raw bytes, Content-Type sniffed from them,
// and the stored name in Content-Disposition.
//
// 404 when the course, the student or the image is absent.
// ─────────────────────────────────────────────────────────────────────────────
func GetImage(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := loadStudent(w, r, store)
		if !ok {
			return
		}
		if s.IdentificationImage == nil {
			response.Error(w, http.StatusNotFound, errNoImage)
			return
		}

		img := s.IdentificationImage
		w.Header().Set("Content-Type", mimetype.Detect(img.Data).String())
		w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": img.FileName}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img.Data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteImage handles DELETE /courses/{courseID}/students/{studentID}/identificationimage
// Clears bytes and file name. 204 even when there was no image.
// ─────────────────────────────────────────────────────────────────────────────
func DeleteImage(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, studentID, ok := resolveStudent(w, r, store)
		if !ok {
			return
		}

		if err := store.SetIdentificationImage(r.Context(), courseID, studentID, nil); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("student_id", studentID).Msg("error clearing identification image")
			response.Error(w, http.StatusInternalServerError, err)
			return
		}

		response.NoContent(w)
	}
}

// readImage pulls the first file part out of a multipart body.
func readImage(w http.ResponseWriter, r *http.Request) (types.IdentificationImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+formOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return types.IdentificationImage{}, errNotMultipart
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return types.IdentificationImage{}, errNoFilePart
		}
		if err != nil {
			return types.IdentificationImage{}, fmt.Errorf("reading multipart body: %w", err)
		}

		name := part.FileName()
		if name == "" {
			// plain form field
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, MaxImageSize+1))
		part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return types.IdentificationImage{}, errImageTooLarge
			}
			return types.IdentificationImage{}, fmt.Errorf("reading file part: %w", err)
		}

		switch {
		case len(data) == 0:
			return types.IdentificationImage{}, errEmptyImage
		case len(data) > MaxImageSize:
			return types.IdentificationImage{}, errImageTooLarge
		}
		return types.IdentificationImage{Data: data, FileName: name}, nil
	}
}
