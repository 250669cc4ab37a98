package client

// Course as returned by the API. Rosters are fetched with ListStudents.
type Course struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Department         string `json:"department"`
	Code               string `json:"code"`
	ProfessorFirstName string `json:"professorFirstName"`
	ProfessorLastName  string `json:"professorLastName"`
	ProfessorName      string `json:"professorName"`
}

type Student struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// IdentificationImageFileName is empty when the student has no image.
	IdentificationImageFileName string `json:"identificationImageFileName,omitempty"`
}

type AddCourseRequest struct {
	Name               string `json:"name"`
	Code               string `json:"code"`
	Department         string `json:"department"`
	ProfessorFirstName string `json:"professorFirstName"`
	ProfessorLastName  string `json:"professorLastName"`
}

type UpdateCourseRequest struct {
	Name               string `json:"name"`
	Code               string `json:"code"`
	Department         string `json:"department"`
	ProfessorFirstName string `json:"professorFirstName"`
	ProfessorLastName  string `json:"professorLastName"`
}

type AddStudentRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UpdateStudentRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AddCourseResponse is the created course plus the URI it can be fetched at.
type AddCourseResponse struct {
	Course      Course
	ResourceURI string
}

type AddStudentResponse struct {
	Student     Student
	ResourceURI string
}

// IdentificationImage is a student's stored image and its file name.
type IdentificationImage struct {
	Data     []byte
	FileName string
}

// ListOptions selects a page. Zero Skip and Take are left to the server
// defaults; an empty Search matches everything.
type ListOptions struct {
	Skip   int
	Take   int
	Search string
}
