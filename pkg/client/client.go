// Package client is a typed Go client for the courses API.
//
// Every method funnels through one request path and one status decision
// table, so outcomes are uniform across operations:
//
//	200, 201, 204  success, body decoded when a result is expected
//	401            ErrAuthorization
//	404            ErrNotFound
//	422            ErrValidation, with the field messages flattened
//	anything else  ErrAPI, wrapping the cause
//
// Transport failures and unreadable or undecodable bodies are ErrAPI too.
// Select the outcome with errors.Is, or errors.As into *Error for details:
//
//	c, err := client.New("http://localhost:8082", "caller@zirpl.com", "Pass123!")
//	...
//	_, err = c.GetCourse(ctx, 1000)
//	if errors.Is(err, client.ErrNotFound) { ... }
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to one API deployment with one credential pair. It is safe
// for concurrent use.
type Client struct {
	baseURL  *url.URL
	username string
	password string
	http     *http.Client
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger logs one debug line per call. The default logger discards.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL, username, password string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:  u,
		username: username,
		password: password,
		http:     http.DefaultClient,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call describes one request and what a success should be decoded into.
type call struct {
	method      string
	path        []string
	query       url.Values
	body        io.Reader
	contentType string

	// notFound is the message of the KindNotFound error.
	notFound string

	// out receives the JSON body of a success, when non-nil.
	out any
}

// result is what a successful call hands back besides the decoded body.
type result struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, cl call) (result, error) {
	u := c.baseURL.JoinPath(cl.path...)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), cl.body)
	if err != nil {
		return result{}, apiError(0, "building request", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", cl.method).Str("url", u.String()).Msg("request failed")
		return result{}, apiError(0, "unexpected exception", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{}, apiError(resp.StatusCode, "reading response body", err)
	}

	c.log.Debug().
		Str("method", cl.method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	res := result{status: resp.StatusCode, header: resp.Header, body: body}
	return res, decide(res, cl)
}

// decide maps a response onto success or exactly one *Error.
func decide(res result, cl call) error {
	switch res.status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		if cl.out == nil || len(bytes.TrimSpace(res.body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(res.body, cl.out); err != nil {
			return apiError(res.status, "decoding response body", err)
		}
		return nil

	case http.StatusUnauthorized:
		return &Error{Kind: KindAuthorization, StatusCode: res.status, Message: "bad credentials"}

	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, StatusCode: res.status, Message: cl.notFound}

	case http.StatusUnprocessableEntity:
		var problem struct {
			Errors map[string][]string `json:"errors"`
		}
		if err := json.Unmarshal(res.body, &problem); err != nil {
			return apiError(res.status, "decoding validation errors", err)
		}
		return &Error{
			Kind:             KindValidation,
			StatusCode:       res.status,
			Message:          "invalid input",
			ValidationErrors: flatten(problem.Errors),
		}

	default:
		return apiError(res.status,
			fmt.Sprintf("unexpected http status code: %d %s", res.status, http.StatusText(res.status)),
			serverError(res.body))
	}
}

// fieldOrder is the order validation messages are reported in. Fields not
// listed follow alphabetically.
var fieldOrder = []string{
	"Name", "Code", "Department", "ProfessorFirstName", "ProfessorLastName",
	"FirstName", "LastName",
}

func flatten(errs map[string][]string) []string {
	rank := make(map[string]int, len(fieldOrder))
	for i, f := range fieldOrder {
		rank[f] = i
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		ri, iok := rank[fields[i]]
		rj, jok := rank[fields[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return fields[i] < fields[j]
		}
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, errs[f]...)
	}
	return out
}

// serverError extracts the message of a {"status":"error","error":"..."}
// envelope, or nil if the body is something else.
func serverError(body []byte) error {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil || env.Error == "" {
		return nil
	}
	return fmt.Errorf("server: %s", env.Error)
}

func listQuery(o ListOptions) url.Values {
	q := url.Values{}
	if o.Skip != 0 {
		q.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Take != 0 {
		q.Set("take", strconv.Itoa(o.Take))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	return q
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apiError(0, "encoding request body", err)
	}
	return bytes.NewReader(b), nil
}

func itoa(n int) string { return strconv.Itoa(n) }
