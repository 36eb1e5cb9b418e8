package coursegen

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Repair records one fix applied while normalizing a model-produced
// document. Repairs are returned to the caller instead of being logged
// inline, so the pipeline can decide what to surface or persist.
type Repair struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

// Repair actions.
const (
	RepairSyntheticID   = "synthetic-id"
	RepairClampedAnswer = "clamped-correct-answer"
	RepairEmptyOptions  = "empty-options"
	RepairLanguage      = "language-fallback"
	RepairDropped       = "dropped-malformed"
	RepairFieldShape    = "repaired-field-shape"
)

type rawCourse struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Lessons     json.RawMessage `json:"lessons"`
}

type rawLesson struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	Questions       json.RawMessage `json:"questions"`
	CodingExercises json.RawMessage `json:"codingExercises"`
}

type rawQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type rawExercise struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Language    string     `json:"language"`
	StarterCode string     `json:"starterCode"`
	TestCases   []TestCase `json:"testCases"`
	Solution    string     `json:"solution"`
}

// Normalize validates and repairs a parsed course document into the
// canonical Course shape. Exactly two conditions are fatal: a missing or
// empty title, and a lessons field that is neither absent nor an array.
// Everything else is repaired in place and recorded: missing or duplicate
// ids get deterministic positional fallbacks, out-of-range answer indices
// are clamped, missing options become an empty sequence, unknown exercise
// languages fall back to plaintext. A partially generated course is more
// useful than no course, so content is preserved rather than rejected.
//
// Normalize is idempotent: running it over its own re-serialized output
// yields an identical document and no repairs.
func Normalize(doc []byte) (*Course, []Repair, error) {
	var rc rawCourse
	if err := json.Unmarshal(doc, &rc); err != nil {
		return nil, nil, &ValidationError{Field: "document", Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}
	if strings.TrimSpace(rc.Title) == "" {
		return nil, nil, &ValidationError{Field: "title", Reason: "missing or empty"}
	}

	var rawLessons []json.RawMessage
	if len(rc.Lessons) > 0 && string(rc.Lessons) != "null" {
		if err := json.Unmarshal(rc.Lessons, &rawLessons); err != nil {
			return nil, nil, &ValidationError{Field: "lessons", Reason: "not an array"}
		}
	}

	course := &Course{
		Title:       rc.Title,
		Description: rc.Description,
		Lessons:     make([]Lesson, 0, len(rawLessons)),
	}

	var repairs []Repair
	seenLessonIDs := make(map[string]bool)

	for i, rawMsg := range rawLessons {
		var rl rawLesson
		if err := json.Unmarshal(rawMsg, &rl); err != nil {
			repairs = append(repairs, Repair{
				Path:   fmt.Sprintf("lessons[%d]", i),
				Action: RepairDropped,
				Detail: err.Error(),
			})
			continue
		}

		lessonPath := fmt.Sprintf("lessons[%d]", i)
		id := rl.ID
		if id == "" || seenLessonIDs[id] {
			id = uniqueID(seenLessonIDs, "lesson-", i+1)
			repairs = append(repairs, Repair{Path: lessonPath, Action: RepairSyntheticID, Detail: id})
		}
		seenLessonIDs[id] = true

		lesson := Lesson{
			ID:      id,
			Title:   rl.Title,
			Content: rl.Content,
		}

		var qRepairs []Repair
		lesson.Questions, qRepairs = normalizeQuestions(rl.Questions, id, lessonPath)
		repairs = append(repairs, qRepairs...)

		var exRepairs []Repair
		lesson.CodingExercises, exRepairs = normalizeExercises(rl.CodingExercises, id, lessonPath)
		repairs = append(repairs, exRepairs...)

		course.Lessons = append(course.Lessons, lesson)
	}

	return course, repairs, nil
}

func normalizeQuestions(raw json.RawMessage, lessonID, lessonPath string) ([]Question, []Repair) {
	var repairs []Repair
	var rawQuestions []json.RawMessage
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &rawQuestions); err != nil {
			repairs = append(repairs, Repair{
				Path:   lessonPath + ".questions",
				Action: RepairFieldShape,
				Detail: "not an array, replaced with empty sequence",
			})
			rawQuestions = nil
		}
	}

	questions := make([]Question, 0, len(rawQuestions))
	seen := make(map[string]bool)
	for j, msg := range rawQuestions {
		path := fmt.Sprintf("%s.questions[%d]", lessonPath, j)
		var rq rawQuestion
		if err := json.Unmarshal(msg, &rq); err != nil {
			repairs = append(repairs, Repair{Path: path, Action: RepairDropped, Detail: err.Error()})
			continue
		}

		id := rq.ID
		if id == "" || seen[id] {
			id = uniqueID(seen, lessonID+"-q", j+1)
			repairs = append(repairs, Repair{Path: path, Action: RepairSyntheticID, Detail: id})
		}
		seen[id] = true

		q := Question{
			ID:            id,
			Question:      rq.Question,
			Options:       rq.Options,
			CorrectAnswer: rq.CorrectAnswer,
			Explanation:   rq.Explanation,
		}
		if q.Options == nil {
			// Preserved without options rather than dropped; the question
			// becomes unanswerable but the content survives.
			q.Options = []string{}
			repairs = append(repairs, Repair{Path: path, Action: RepairEmptyOptions})
		}
		if len(q.Options) == 0 {
			if q.CorrectAnswer != 0 {
				repairs = append(repairs, Repair{Path: path, Action: RepairClampedAnswer, Detail: fmt.Sprintf("%d -> 0", q.CorrectAnswer)})
				q.CorrectAnswer = 0
			}
		} else if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			clamped := len(q.Options) - 1
			repairs = append(repairs, Repair{Path: path, Action: RepairClampedAnswer, Detail: fmt.Sprintf("%d -> %d", q.CorrectAnswer, clamped)})
			q.CorrectAnswer = clamped
		}
		questions = append(questions, q)
	}
	return questions, repairs
}

func normalizeExercises(raw json.RawMessage, lessonID, lessonPath string) ([]Exercise, []Repair) {
	var repairs []Repair
	var rawExercises []json.RawMessage
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &rawExercises); err != nil {
			repairs = append(repairs, Repair{
				Path:   lessonPath + ".codingExercises",
				Action: RepairFieldShape,
				Detail: "not an array, replaced with empty sequence",
			})
			rawExercises = nil
		}
	}

	exercises := make([]Exercise, 0, len(rawExercises))
	seen := make(map[string]bool)
	for j, msg := range rawExercises {
		path := fmt.Sprintf("%s.codingExercises[%d]", lessonPath, j)
		var re rawExercise
		if err := json.Unmarshal(msg, &re); err != nil {
			repairs = append(repairs, Repair{Path: path, Action: RepairDropped, Detail: err.Error()})
			continue
		}

		id := re.ID
		if id == "" || seen[id] {
			id = uniqueID(seen, lessonID+"-ex", j+1)
			repairs = append(repairs, Repair{Path: path, Action: RepairSyntheticID, Detail: id})
		}
		seen[id] = true

		ex := Exercise{
			ID:          id,
			Title:       re.Title,
			Description: re.Description,
			Language:    re.Language,
			StarterCode: re.StarterCode,
			TestCases:   re.TestCases,
			Solution:    re.Solution,
		}
		if !SupportedLanguages[ex.Language] {
			repairs = append(repairs, Repair{Path: path, Action: RepairLanguage, Detail: ex.Language + " -> " + LanguageFallback})
			ex.Language = LanguageFallback
		}
		if ex.TestCases == nil {
			ex.TestCases = []TestCase{}
		}
		exercises = append(exercises, ex)
	}
	return exercises, repairs
}

// uniqueID builds a positional fallback id, advancing the numeric suffix
// until it does not clash with any sibling id already recorded in seen.
func uniqueID(seen map[string]bool, prefix string, pos int) string {
	id := fmt.Sprintf("%s%d", prefix, pos)
	for seen[id] {
		pos++
		id = fmt.Sprintf("%s%d", prefix, pos)
	}
	return id
}
