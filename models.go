package coursegen

import "time"

// Course is the full generated course document. The stored copy is owned by
// the database once created; anything held in memory during editing is a
// detached working copy until saved back with ReplaceCourse.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Lessons     []Lesson  `json:"lessons"`
}

// Lesson is one unit of a course, with markdown content plus its quiz
// questions and coding exercises in order.
type Lesson struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Questions       []Question `json:"questions"`
	CodingExercises []Exercise `json:"codingExercises"`
}

// Question is a multiple choice question. CorrectAnswer is a 0-based index
// into Options and is kept inside [0, len(Options)) by Normalize and by
// RemoveOption.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Exercise is a coding exercise attached to a lesson.
type Exercise struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Language    string     `json:"language"`
	StarterCode string     `json:"starterCode"`
	TestCases   []TestCase `json:"testCases"`
	Solution    string     `json:"solution"`
}

// TestCase is one input/expected-output pair for an exercise.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// CourseSummary is the listing row returned by ListCourses.
type CourseSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LessonCount int       `json:"lesson_count"`
}

// SourceFile is one collected markdown file.
type SourceFile struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// GenerationRequest describes one course generation call.
type GenerationRequest struct {
	Files     []SourceFile `json:"files"`
	Model     string       `json:"model,omitempty"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

// SupportedLanguages is the fixed set of exercise languages. Anything else
// coming back from the model is repaired to LanguageFallback.
var SupportedLanguages = map[string]bool{
	"go":         true,
	"python":     true,
	"javascript": true,
	"typescript": true,
	"java":       true,
	"c":          true,
	"cpp":        true,
	"rust":       true,
	"ruby":       true,
	"plaintext":  true,
}

// LanguageFallback is substituted for missing or unknown exercise languages.
const LanguageFallback = "plaintext"

// RemoveOption deletes the option at index i and keeps CorrectAnswer valid:
// it is clamped to the last remaining index if it would point past the end.
// Out-of-range i is a no-op.
func (q *Question) RemoveOption(i int) {
	if i < 0 || i >= len(q.Options) {
		return
	}
	q.Options = append(q.Options[:i], q.Options[i+1:]...)
	if len(q.Options) == 0 {
		q.CorrectAnswer = 0
		return
	}
	if q.CorrectAnswer >= len(q.Options) {
		q.CorrectAnswer = len(q.Options) - 1
	}
}

// LessonCount is the lesson_count column value for a stored course.
func (c *Course) LessonCount() int {
	return len(c.Lessons)
}
