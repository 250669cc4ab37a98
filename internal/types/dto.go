package types

import (
	"bytes"
	"encoding/json"
)

// CourseRequest is the JSON body of POST /courses and PUT /courses/{id}.
//
// Struct tags:
//
//  1. json:"..."     wire names (camelCase, matching the rest of the API).
//  2. validate:"..." go-playground/validator rules. "notblank" is a custom
//     rule registered in internal/validate that rejects empty and
//     whitespace-only strings.
type CourseRequest struct {
	Name               string `json:"name"               validate:"notblank,max=100"`
	Code               string `json:"code"               validate:"max=100"`
	Department         string `json:"department"         validate:"max=100"`
	ProfessorFirstName string `json:"professorFirstName" validate:"max=100"`
	ProfessorLastName  string `json:"professorLastName"  validate:"max=100"`
}

// Course converts the request into a domain Course with no id.
func (r CourseRequest) Course() Course {
	return Course{
		Name:       r.Name,
		Code:       r.Code,
		Department: r.Department,
		Professor: Professor{
			FirstName: r.ProfessorFirstName,
			LastName:  r.ProfessorLastName,
		},
	}
}

// StudentRequest is the JSON body of POST/PUT on the students routes.
type StudentRequest struct {
	FirstName string `json:"firstName" validate:"notblank,max=100"`
	LastName  string `json:"lastName"  validate:"notblank,max=100"`
}

// Student converts the request into a domain Student with no id.
func (r StudentRequest) Student() Student {
	return Student{FirstName: r.FirstName, LastName: r.LastName}
}

// CourseResponse is how a course is rendered to API consumers. Students are
// served from their own routes and are not embedded.
type CourseResponse struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Department         string `json:"department"`
	Code               string `json:"code"`
	ProfessorFirstName string `json:"professorFirstName"`
	ProfessorLastName  string `json:"professorLastName"`
	ProfessorName      string `json:"professorName"`
}

// NewCourseResponse maps a domain Course onto its wire shape.
func NewCourseResponse(c Course) CourseResponse {
	return CourseResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Department:         c.Department,
		Code:               c.Code,
		ProfessorFirstName: c.Professor.FirstName,
		ProfessorLastName:  c.Professor.LastName,
		ProfessorName:      c.Professor.FullName(),
	}
}

// NewCourseResponses maps a slice, returning [] rather than nil so the JSON
// body is never null.
func NewCourseResponses(courses []Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourseResponse(c))
	}
	return out
}

// StudentResponse is how a student is rendered. The image bytes are only
// available from the identificationimage route.
type StudentResponse struct {
	ID                          int    `json:"id"`
	FirstName                   string `json:"firstName"`
	LastName                    string `json:"lastName"`
	IdentificationImageFileName string `json:"identificationImageFileName,omitempty"`
}

// NewStudentResponse maps a domain Student onto its wire shape.
func NewStudentResponse(s Student) StudentResponse {
	resp := StudentResponse{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
	if s.IdentificationImage != nil {
		resp.IdentificationImageFileName = s.IdentificationImage.FileName
	}
	return resp
}

// NewStudentResponses maps a slice, never returning nil.
func NewStudentResponses(students []Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return out
}

// FieldError is one validation failure: the request field (Go field name,
// e.g. "ProfessorFirstName") and a human-readable message.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is an ordered list of validation failures.
//
// On the wire it renders as an object keyed by field, each value an array of
// messages:
//
//	{ "Name": ["'Name' is required"], "Code": ["Max length of 'Code' is 100"] }
//
// Keys appear in the order their first failure was recorded.
type FieldErrors []FieldError

// Fields returns the distinct field names in first-failure order.
func (fe FieldErrors) Fields() []string {
	seen := make(map[string]bool, len(fe))
	var fields []string
	for _, e := range fe {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	return fields
}

// Messages returns every message recorded for field, in order.
func (fe FieldErrors) Messages(field string) []string {
	var msgs []string
	for _, e := range fe {
		if e.Field == field {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// MarshalJSON writes the grouped, ordered object form. encoding/json sorts map
// keys, so the object is assembled by hand to keep failure order.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fe.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fe.Messages(field))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
