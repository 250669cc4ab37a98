package client

import (
	"context"
	"fmt"
	"net/http"
)

// ListCourses returns one page of courses ordered by id.
func (c *Client) ListCourses(ctx context.Context, opts ListOptions) ([]Course, error) {
	var courses []Course
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   []string{"courses"},
		query:  listQuery(opts),
		out:    &courses,
	})
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, courseID int) (Course, error) {
	var course Course
	_, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     []string{"courses", itoa(courseID)},
		notFound: fmt.Sprintf("course %d not found", courseID),
		out:      &course,
	})
	return course, err
}

// AddCourse creates a course. The server assigns its id.
func (c *Client) AddCourse(ctx context.Context, req AddCourseRequest) (AddCourseResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return AddCourseResponse{}, err
	}

	var course Course
	res, err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        []string{"courses"},
		body:        body,
		contentType: "application/json",
		out:         &course,
	})
	if err != nil {
		return AddCourseResponse{}, err
	}

	uri, err := location(res)
	if err != nil {
		return AddCourseResponse{}, err
	}
	return AddCourseResponse{Course: course, ResourceURI: uri}, nil
}

// UpdateCourse replaces the course's fields. Its roster is kept.
func (c *Client) UpdateCourse(ctx context.Context, courseID int, req UpdateCourseRequest) error {
	body, err := jsonBody(req)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, call{
		method:      http.MethodPut,
		path:        []string{"courses", itoa(courseID)},
		body:        body,
		contentType: "application/json",
		notFound:    fmt.Sprintf("course %d not found", courseID),
	})
	return err
}

// DeleteCourse removes a course and every student enrolled in it.
func (c *Client) DeleteCourse(ctx context.Context, courseID int) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		path:     []string{"courses", itoa(courseID)},
		notFound: fmt.Sprintf("course %d not found", courseID),
	})
	return err
}

// location returns the absolute URI of a 201's Location header.
func location(res result) (string, error) {
	loc := res.header.Get("Location")
	if loc == "" {
		return "", apiError(res.status, "created response has no Location header", nil)
	}
	return loc, nil
}
