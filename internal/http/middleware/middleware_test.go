package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/courses-api/internal/config"
)

var creds = config.Auth{Username: "caller@zirpl.com", Password: "Pass123!"}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestBasicAuth(t *testing.T) {
	cases := []struct {
		name       string
		setAuth    func(r *http.Request)
		wantStatus int
	}{
		{"valid", func(r *http.Request) { r.SetBasicAuth("caller@zirpl.com", "Pass123!") }, http.StatusTeapot},
		{"username case-insensitive", func(r *http.Request) { r.SetBasicAuth("CALLER@Zirpl.com", "Pass123!") }, http.StatusTeapot},
		{"password case-sensitive", func(r *http.Request) { r.SetBasicAuth("caller@zirpl.com", "pass123!") }, http.StatusUnauthorized},
		{"bad username", func(r *http.Request) { r.SetBasicAuth("badusername@zirpl.com", "Pass123!") }, http.StatusUnauthorized},
		{"no header", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer scheme", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, http.StatusUnauthorized},
		{"garbage base64", func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") }, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			h := BasicAuth(creds)(okHandler(&called))

			r := httptest.NewRequest(http.MethodGet, "/courses", nil)
			tc.setAuth(r)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantStatus != http.StatusUnauthorized, called)
			if tc.wantStatus == http.StatusUnauthorized {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var seen string
	h := RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/courses/1", nil))

	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	require.Contains(t, buf.String(), `"message":"inside handler"`)
	require.Contains(t, buf.String(), `"request_id":"`+seen+`"`)
	require.Contains(t, buf.String(), `"status":204`)

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/courses", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, r)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
