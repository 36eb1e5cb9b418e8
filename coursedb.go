package coursegen

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the course document store. Courses are kept as one JSON blob per
// row, replaced wholesale on update; the listing columns are denormalized
// copies maintained on every write.
type DB struct {
	db *sql.DB
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	query := `CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		lesson_count INTEGER NOT NULL,
		document TEXT NOT NULL
	)`
	if _, err := db.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute %s: %w", query, err)
	}
	return nil
}

// CreateCourse stores a newly generated course.
func (db *DB) CreateCourse(course *Course) error {
	document, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("failed to marshal course: %w", err)
	}

	_, err = db.db.Exec(
		"INSERT INTO courses (id, title, description, created_at, updated_at, lesson_count, document) VALUES (?, ?, ?, ?, ?, ?, ?)",
		course.ID, course.Title, course.Description, course.CreatedAt, course.CreatedAt, course.LessonCount(), string(document),
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// GetCourse retrieves a course document by ID.
func (db *DB) GetCourse(id string) (*Course, error) {
	var document string
	err := db.db.QueryRow("SELECT document FROM courses WHERE id = ?", id).Scan(&document)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{CourseID: id}
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	var course Course
	if err := json.Unmarshal([]byte(document), &course); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored course %s: %w", id, err)
	}
	return &course, nil
}

// ReplaceCourse overwrites the stored document for an existing course id
// wholesale: title, description, and the entire lesson tree. There is no
// partial patch and no concurrency token; the last writer wins. The stored
// id and creation time are preserved. Returns the stored course.
func (db *DB) ReplaceCourse(id string, course *Course) (*Course, error) {
	existing, err := db.GetCourse(id)
	if err != nil {
		return nil, err
	}

	course.ID = existing.ID
	course.CreatedAt = existing.CreatedAt

	document, err := json.Marshal(course)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal course: %w", err)
	}

	_, err = db.db.Exec(
		"UPDATE courses SET title = ?, description = ?, updated_at = ?, lesson_count = ?, document = ? WHERE id = ?",
		course.Title, course.Description, time.Now().UTC(), course.LessonCount(), string(document), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to replace course: %w", err)
	}
	return course, nil
}

// ListCourses returns course summaries ordered by creation time descending.
// A zero since lists everything; otherwise only courses created at or after
// since are returned.
func (db *DB) ListCourses(since time.Time) ([]CourseSummary, error) {
	query := "SELECT id, title, description, created_at, lesson_count FROM courses"
	var args []interface{}
	if !since.IsZero() {
		query += " WHERE created_at >= ?"
		args = append(args, since)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var summaries []CourseSummary
	for rows.Next() {
		var s CourseSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt, &s.LessonCount); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}
	return summaries, nil
}
