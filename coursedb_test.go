package coursegen

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.CloseDB() })
	if err := db.CreateTables(); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	return db
}

func storedCourse(id string, createdAt time.Time) *Course {
	c := sampleCourse()
	c.ID = id
	c.CreatedAt = createdAt
	return c
}

func TestCreateAndGetCourse(t *testing.T) {
	db := openTestDB(t)
	course := storedCourse("c1", time.Now().UTC().Truncate(time.Second))

	if err := db.CreateCourse(course); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := db.GetCourse("c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != course.Title || len(got.Lessons) != 1 {
		t.Fatalf("stored course mismatch: %+v", got)
	}
	if got.Lessons[0].Questions[0].CorrectAnswer != 1 {
		t.Fatal("nested document fields lost in roundtrip")
	}
}

func TestGetCourseNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetCourse("missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.CourseID != "missing" {
		t.Fatalf("wrong course id in error: %q", notFound.CourseID)
	}
}

func TestReplaceCourse(t *testing.T) {
	db := openTestDB(t)
	createdAt := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	original := storedCourse("c1", createdAt)
	if err := db.CreateCourse(original); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	replacement := sampleCourse()
	replacement.ID = "ignored-by-replace"
	replacement.Title = "Updated Title"
	replacement.Lessons = append(replacement.Lessons, Lesson{ID: "l2", Title: "New Lesson"})

	stored, err := db.ReplaceCourse("c1", replacement)
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if stored.ID != "c1" {
		t.Fatalf("replace must preserve the stored id, got %q", stored.ID)
	}
	if !stored.CreatedAt.Equal(createdAt) {
		t.Fatalf("replace must preserve creation time, got %v", stored.CreatedAt)
	}

	got, err := db.GetCourse("c1")
	if err != nil {
		t.Fatalf("get after replace failed: %v", err)
	}
	if got.Title != "Updated Title" || len(got.Lessons) != 2 {
		t.Fatalf("document not replaced wholesale: %+v", got)
	}
}

func TestReplaceCourseNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.ReplaceCourse("missing", sampleCourse())
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListCoursesOrderAndFilter(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		c := storedCourse(id, base.Add(time.Duration(i)*time.Hour))
		c.Title = id
		if err := db.CreateCourse(c); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}

	all, err := db.ListCourses(time.Time{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(all))
	}
	if all[0].ID != "new" || all[2].ID != "old" {
		t.Fatalf("expected creation time descending, got %v", all)
	}
	if all[0].LessonCount != 1 {
		t.Fatalf("expected lesson count 1, got %d", all[0].LessonCount)
	}

	recent, err := db.ListCourses(base.Add(time.Hour))
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 courses at or after cutoff, got %d", len(recent))
	}
	for _, s := range recent {
		if s.ID == "old" {
			t.Fatal("cutoff filter returned an older course")
		}
	}
}
