// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface on top of database/sql.
//
// Two tables hold the data: courses, and students with a course_id column.
// Student ids are a single sequence across the students table, which is what
// makes them unique store-wide.
//
// Statements are built with squirrel; the default "?" placeholder format is
// the one SQLite expects.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/aanand-mishra/courses-api/internal/config"
	"github.com/aanand-mishra/courses-api/internal/storage"
	"github.com/aanand-mishra/courses-api/internal/types"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

var courseColumns = []string{
	"id", "name", "department", "code", "professor_first_name", "professor_last_name",
}

var studentColumns = []string{
	"id", "first_name", "last_name", "id_image", "id_image_file_name",
}

// SQLite is the database/sql implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
	sb sq.StatementBuilderType
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the database at cfg.Storage.Path and creates both tables if they
// do not exist yet.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time; a single connection turns
	// concurrent requests into a queue instead of SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS courses (
			id                   INTEGER PRIMARY KEY,
			name                 TEXT NOT NULL,
			department           TEXT NOT NULL,
			code                 TEXT NOT NULL,
			professor_first_name TEXT NOT NULL,
			professor_last_name  TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS students (
			id                 INTEGER PRIMARY KEY,
			course_id          INTEGER NOT NULL REFERENCES courses (id),
			first_name         TEXT NOT NULL,
			last_name          TEXT NOT NULL,
			id_image           BLOB,
			id_image_file_name TEXT
		);
		CREATE INDEX IF NOT EXISTS students_course_id ON students (course_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db, sb: sq.StatementBuilder}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) CourseExists(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, s.sb.Select("1").From("courses").Where(sq.Eq{"id": id}))
}

func (s *SQLite) CourseCount(ctx context.Context) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From("courses").ToSql()
	if err != nil {
		return 0, fmt.Errorf("CourseCount: build: %w", err)
	}
	var n int
	if err := s.Db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("CourseCount: scan: %w", err)
	}
	return n, nil
}

func (s *SQLite) AddCourse(ctx context.Context, course types.Course) (int, error) {
	var id int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = nextID(ctx, tx, "courses"); err != nil {
			return err
		}

		query, args, err := s.sb.Insert("courses").
			Columns(courseColumns...).
			Values(id, course.Name, course.Department, course.Code,
				course.Professor.FirstName, course.Professor.LastName).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert course: %w", err)
		}

		for _, student := range course.Students {
			if _, err := s.insertStudent(ctx, tx, id, student); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("AddCourse: %w", err)
	}
	return id, nil
}

func (s *SQLite) DeleteCourse(ctx context.Context, id int) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.sb.Delete("students").Where(sq.Eq{"course_id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete students: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete students: %w", err)
		}

		query, args, err = s.sb.Delete("courses").Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete course: %w", err)
		}
		return execOne(ctx, tx, query, args)
	})
	if err != nil {
		return fmt.Errorf("DeleteCourse %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) GetCourse(ctx context.Context, id int) (types.Course, bool, error) {
	query, args, err := s.sb.Select(courseColumns...).
		From("courses").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return types.Course{}, false, fmt.Errorf("GetCourse: build: %w", err)
	}

	course, err := scanCourse(s.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Course{}, false, nil
	}
	if err != nil {
		return types.Course{}, false, fmt.Errorf("GetCourse: scan: %w", err)
	}

	course.Students, err = s.roster(ctx, s.rosterQuery(id, types.ListQuery{}))
	if err != nil {
		return types.Course{}, false, fmt.Errorf("GetCourse: %w", err)
	}
	return course, true, nil
}

func (s *SQLite) UpdateCourse(ctx context.Context, course types.Course) error {
	query, args, err := s.sb.Update("courses").
		Set("name", course.Name).
		Set("code", course.Code).
		Set("department", course.Department).
		Set("professor_first_name", course.Professor.FirstName).
		Set("professor_last_name", course.Professor.LastName).
		Where(sq.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UpdateCourse: build: %w", err)
	}
	if err := execOne(ctx, s.Db, query, args); err != nil {
		return fmt.Errorf("UpdateCourse %d: %w", course.ID, err)
	}
	return nil
}

func (s *SQLite) ListCourses(ctx context.Context, q types.ListQuery) ([]types.Course, error) {
	sel := s.sb.Select(courseColumns...).From("courses").OrderBy("id")
	if !q.Blank() {
		sel = sel.Where(containsAny(q.Search,
			"name", "department", "professor_first_name", "professor_last_name"))
	}
	sel = page(sel, q)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListCourses: build: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListCourses: query: %w", err)
	}
	defer rows.Close()

	courses := make([]types.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("ListCourses: scan row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCourses: rows iteration: %w", err)
	}
	return courses, nil
}

func (s *SQLite) StudentExists(ctx context.Context, courseID, studentID int) (bool, error) {
	return s.exists(ctx, s.sb.Select("1").From("students").
		Where(sq.Eq{"id": studentID, "course_id": courseID}))
}

func (s *SQLite) StudentCount(ctx context.Context, courseID int) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From("students").
		Where(sq.Eq{"course_id": courseID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("StudentCount: build: %w", err)
	}
	var n int
	if err := s.Db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("StudentCount: scan: %w", err)
	}
	return n, nil
}

func (s *SQLite) AddStudent(ctx context.Context, courseID int, student types.Student) (int, error) {
	var id int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		query, args, err := s.sb.Select("1").From("courses").Where(sq.Eq{"id": courseID}).
			Prefix("SELECT EXISTS (").Suffix(")").ToSql()
		if err != nil {
			return fmt.Errorf("build course exists: %w", err)
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
			return fmt.Errorf("course exists: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}

		id, err = s.insertStudent(ctx, tx, courseID, student)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("AddStudent to course %d: %w", courseID, err)
	}
	return id, nil
}

func (s *SQLite) DeleteStudent(ctx context.Context, courseID, studentID int) error {
	query, args, err := s.sb.Delete("students").
		Where(sq.Eq{"id": studentID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("DeleteStudent: build: %w", err)
	}
	if err := execOne(ctx, s.Db, query, args); err != nil {
		return fmt.Errorf("DeleteStudent %d/%d: %w", courseID, studentID, err)
	}
	return nil
}

func (s *SQLite) GetStudent(ctx context.Context, courseID, studentID int) (types.Student, bool, error) {
	query, args, err := s.sb.Select(studentColumns...).
		From("students").
		Where(sq.Eq{"id": studentID, "course_id": courseID}).
		Limit(1).
		ToSql()
	if err != nil {
		return types.Student{}, false, fmt.Errorf("GetStudent: build: %w", err)
	}

	student, err := scanStudent(s.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("GetStudent: scan: %w", err)
	}
	return student, true, nil
}

func (s *SQLite) UpdateStudent(ctx context.Context, courseID int, student types.Student) error {
	query, args, err := s.sb.Update("students").
		Set("first_name", student.FirstName).
		Set("last_name", student.LastName).
		Where(sq.Eq{"id": student.ID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UpdateStudent: build: %w", err)
	}
	if err := execOne(ctx, s.Db, query, args); err != nil {
		return fmt.Errorf("UpdateStudent %d/%d: %w", courseID, student.ID, err)
	}
	return nil
}

func (s *SQLite) ListStudents(ctx context.Context, courseID int, q types.ListQuery) ([]types.Student, error) {
	sel := s.rosterQuery(courseID, q)
	students, err := s.roster(ctx, page(sel, q))
	if err != nil {
		return nil, fmt.Errorf("ListStudents: %w", err)
	}
	return students, nil
}

// rosterQuery selects the students of courseID matching q.Search, ordered by
// id. Skip and Take are not applied.
func (s *SQLite) rosterQuery(courseID int, q types.ListQuery) sq.SelectBuilder {
	sel := s.sb.Select(studentColumns...).
		From("students").
		Where(sq.Eq{"course_id": courseID}).
		OrderBy("id")
	if !q.Blank() {
		sel = sel.Where(containsAny(q.Search, "first_name", "last_name"))
	}
	return sel
}

func (s *SQLite) roster(ctx context.Context, sel sq.SelectBuilder) ([]types.Student, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return students, nil
}

func (s *SQLite) SetIdentificationImage(ctx context.Context, courseID, studentID int, image *types.IdentificationImage) error {
	var (
		data     []byte
		fileName sql.NullString
	)
	if image != nil {
		if len(image.Data) == 0 || image.FileName == "" {
			return storage.ErrIncompleteImage
		}
		data = image.Data
		fileName = sql.NullString{String: image.FileName, Valid: true}
	}

	query, args, err := s.sb.Update("students").
		Set("id_image", data).
		Set("id_image_file_name", fileName).
		Where(sq.Eq{"id": studentID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("SetIdentificationImage: build: %w", err)
	}
	if err := execOne(ctx, s.Db, query, args); err != nil {
		return fmt.Errorf("SetIdentificationImage %d/%d: %w", courseID, studentID, err)
	}
	return nil
}

func (s *SQLite) insertStudent(ctx context.Context, tx *sql.Tx, courseID int, student types.Student) (int, error) {
	id, err := nextID(ctx, tx, "students")
	if err != nil {
		return 0, err
	}

	var (
		data     []byte
		fileName sql.NullString
	)
	if img := student.IdentificationImage; img != nil {
		data = img.Data
		fileName = sql.NullString{String: img.FileName, Valid: true}
	}

	query, args, err := s.sb.Insert("students").
		Columns("id", "course_id", "first_name", "last_name", "id_image", "id_image_file_name").
		Values(id, courseID, student.FirstName, student.LastName, data, fileName).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("insert student: %w", err)
	}
	return id, nil
}

func (s *SQLite) exists(ctx context.Context, sel sq.SelectBuilder) (bool, error) {
	query, args, err := sel.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("exists: build: %w", err)
	}
	var exists bool
	if err := s.Db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists: scan: %w", err)
	}
	return exists, nil
}

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// nextID returns max(id)+1 for table, or 1 when it is empty.
func nextID(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM "+table).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", table, err)
	}
	return id, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs a statement that must touch exactly one row, mapping zero
// affected rows to storage.ErrNotFound.
func execOne(ctx context.Context, db execer, query string, args []any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// containsAny matches rows where search is a case-insensitive substring of
// any column. instr() is used instead of LIKE so '%' and '_' in the search
// text are literal.
func containsAny(search string, columns ...string) sq.Or {
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr("instr(lower("+col+"), lower(?)) > 0", search))
	}
	return or
}

func page(sel sq.SelectBuilder, q types.ListQuery) sq.SelectBuilder {
	return sel.Limit(uint64(max(q.Take, 0))).Offset(uint64(max(q.Skip, 0)))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (types.Course, error) {
	var c types.Course
	err := row.Scan(&c.ID, &c.Name, &c.Department, &c.Code,
		&c.Professor.FirstName, &c.Professor.LastName)
	return c, err
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		st       types.Student
		data     []byte
		fileName sql.NullString
	)
	if err := row.Scan(&st.ID, &st.FirstName, &st.LastName, &data, &fileName); err != nil {
		return types.Student{}, err
	}
	if fileName.Valid && len(data) > 0 {
		st.IdentificationImage = &types.IdentificationImage{Data: data, FileName: fileName.String}
	}
	return st, nil
}
