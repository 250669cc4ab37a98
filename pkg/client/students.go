package client

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ListStudents returns one page of a course's roster ordered by id.
func (c *Client) ListStudents(ctx context.Context, courseID int, opts ListOptions) ([]Student, error) {
	var students []Student
	_, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     []string{"courses", itoa(courseID), "students"},
		query:    listQuery(opts),
		notFound: fmt.Sprintf("course %d not found", courseID),
		out:      &students,
	})
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

func (c *Client) GetStudent(ctx context.Context, courseID, studentID int) (Student, error) {
	var student Student
	_, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     studentPath(courseID, studentID),
		notFound: studentNotFound(courseID, studentID),
		out:      &student,
	})
	return student, err
}

// AddStudent enrols a new student in a course.
func (c *Client) AddStudent(ctx context.Context, courseID int, req AddStudentRequest) (AddStudentResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return AddStudentResponse{}, err
	}

	var student Student
	res, err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        []string{"courses", itoa(courseID), "students"},
		body:        body,
		contentType: "application/json",
		notFound:    fmt.Sprintf("course %d not found", courseID),
		out:         &student,
	})
	if err != nil {
		return AddStudentResponse{}, err
	}

	uri, err := location(res)
	if err != nil {
		return AddStudentResponse{}, err
	}
	return AddStudentResponse{Student: student, ResourceURI: uri}, nil
}

func (c *Client) UpdateStudent(ctx context.Context, courseID, studentID int, req UpdateStudentRequest) error {
	body, err := jsonBody(req)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, call{
		method:      http.MethodPut,
		path:        studentPath(courseID, studentID),
		body:        body,
		contentType: "application/json",
		notFound:    studentNotFound(courseID, studentID),
	})
	return err
}

func (c *Client) DeleteStudent(ctx context.Context, courseID, studentID int) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		path:     studentPath(courseID, studentID),
		notFound: studentNotFound(courseID, studentID),
	})
	return err
}

// SetStudentIdentificationImage uploads image as the student's
// identification image, replacing any previous one.
func (c *Client) SetStudentIdentificationImage(ctx context.Context, courseID, studentID int, image []byte, fileName string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	// CreateFormFile would add a Content-Type to the part; the API does not
	// need one.
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(fileName)))
	part, err := mw.CreatePart(h)
	if err != nil {
		return apiError(0, "building multipart body", err)
	}
	if _, err := part.Write(image); err != nil {
		return apiError(0, "building multipart body", err)
	}
	if err := mw.Close(); err != nil {
		return apiError(0, "building multipart body", err)
	}

	_, err = c.do(ctx, call{
		method:      http.MethodPut,
		path:        imagePath(courseID, studentID),
		body:        &buf,
		contentType: mw.FormDataContentType(),
		notFound:    studentNotFound(courseID, studentID),
	})
	return err
}

// GetStudentIdentificationImage downloads the student's image. A student
// without one is reported as ErrNotFound.
func (c *Client) GetStudentIdentificationImage(ctx context.Context, courseID, studentID int) (IdentificationImage, error) {
	res, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     imagePath(courseID, studentID),
		notFound: fmt.Sprintf("identification image of student %d in course %d not found", studentID, courseID),
	})
	if err != nil {
		return IdentificationImage{}, err
	}

	img := IdentificationImage{Data: res.body}
	if cd := res.header.Get("Content-Disposition"); cd != "" {
		_, params, err := mime.ParseMediaType(cd)
		if err != nil {
			return IdentificationImage{}, apiError(res.status, "parsing Content-Disposition", err)
		}
		img.FileName = params["filename"]
	}
	return img, nil
}

// DeleteStudentIdentificationImage clears the student's image. It succeeds
// when there was none.
func (c *Client) DeleteStudentIdentificationImage(ctx context.Context, courseID, studentID int) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		path:     imagePath(courseID, studentID),
		notFound: studentNotFound(courseID, studentID),
	})
	return err
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func studentPath(courseID, studentID int) []string {
	return []string{"courses", itoa(courseID), "students", itoa(studentID)}
}

func imagePath(courseID, studentID int) []string {
	return append(studentPath(courseID, studentID), "identificationimage")
}

func studentNotFound(courseID, studentID int) string {
	return fmt.Sprintf("course %d or student %d not found", courseID, studentID)
}
