package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers every request with status and body.
func fakeServer(t *testing.T, status int, contentType, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, username, password, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestUnexpectedStatusIsAPIError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTeapot, http.StatusInternalServerError, http.StatusBadGateway} {
		c := fakeServer(t, status, "application/json", `{"status":"error","error":"database is locked"}`)

		_, err := c.GetCourse(context.Background(), 1)
		e := requireKind(t, err, ErrAPI)
		assert.Equal(t, status, e.StatusCode)
		require.Error(t, errors.Unwrap(err))
		assert.Contains(t, errors.Unwrap(err).Error(), "database is locked")
	}
}

func TestUnexpectedStatusWithoutEnvelope(t *testing.T) {
	c := fakeServer(t, http.StatusServiceUnavailable, "text/plain", "try later")

	err := c.DeleteCourse(context.Background(), 1)
	e := requireKind(t, err, ErrAPI)
	assert.Equal(t, http.StatusServiceUnavailable, e.StatusCode)
	assert.Nil(t, e.Cause)
	assert.Contains(t, e.Error(), "503")
}

func TestMalformedSuccessBody(t *testing.T) {
	c := fakeServer(t, http.StatusOK, "application/json", `[{"id":1,`)

	_, err := c.ListCourses(context.Background(), ListOptions{})
	requireKind(t, err, ErrAPI)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestMalformedValidationBody(t *testing.T) {
	c := fakeServer(t, http.StatusUnprocessableEntity, "application/problem+json", `not json`)

	_, err := c.AddCourse(context.Background(), AddCourseRequest{})
	e := requireKind(t, err, ErrAPI)
	assert.Equal(t, http.StatusUnprocessableEntity, e.StatusCode)
}

func TestValidationMessagesAreFlattenedInFieldOrder(t *testing.T) {
	body := `{
		"title": "One or more validation errors occurred.",
		"errors": {
			"Zeta": ["z"],
			"ProfessorLastName": ["pl"],
			"Department": ["d"],
			"Alpha": ["a"],
			"Code": ["c1", "c2"],
			"ProfessorFirstName": ["pf"],
			"Name": ["n"]
		}
	}`
	c := fakeServer(t, http.StatusUnprocessableEntity, "application/problem+json", body)

	_, err := c.AddCourse(context.Background(), AddCourseRequest{})
	e := requireKind(t, err, ErrValidation)
	assert.Equal(t, []string{"n", "c1", "c2", "d", "pf", "pl", "a", "z"}, e.ValidationErrors)
}

func TestCreatedWithoutLocation(t *testing.T) {
	c := fakeServer(t, http.StatusCreated, "application/json", `{"id":9,"name":"Writing"}`)

	_, err := c.AddCourse(context.Background(), AddCourseRequest{Name: "Writing"})
	e := requireKind(t, err, ErrAPI)
	assert.Equal(t, http.StatusCreated, e.StatusCode)
}

func TestCancelledContext(t *testing.T) {
	c := fakeServer(t, http.StatusOK, "application/json", `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListCourses(ctx, ListOptions{})
	e := requireKind(t, err, ErrAPI)
	assert.Zero(t, e.StatusCode)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, username, password)
	require.NoError(t, err)

	_, err = c.GetCourse(context.Background(), 1)
	e := requireKind(t, err, ErrAPI)
	assert.Zero(t, e.StatusCode)
	assert.Error(t, e.Cause)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/courses", username, password)
	assert.Error(t, err)

	_, err = New("://bad", username, password)
	assert.Error(t, err)
}

func TestErrorKindsAreDistinct(t *testing.T) {
	sentinels := []*Error{ErrAPI, ErrAuthorization, ErrNotFound, ErrValidation}
	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, errors.Is(a, b), "%s vs %s", a.Kind, b.Kind)
		}
	}
}
