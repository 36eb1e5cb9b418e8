package coursegen

import (
	"fmt"
	"strings"
)

// BuildPrompt concatenates the collected markdown files with structural
// separators and wraps them in the instruction template describing the
// required output schema.
func BuildPrompt(files []SourceFile) string {
	var sb strings.Builder

	sb.WriteString("Turn the following course material into a structured course.\n\n")
	sb.WriteString("Respond with a single JSON object and nothing else, using this shape:\n")
	sb.WriteString(`{
  "title": "course title",
  "description": "one-paragraph course description",
  "lessons": [
    {
      "id": "lesson-1",
      "title": "lesson title",
      "content": "lesson body in markdown",
      "questions": [
        {
          "id": "q1",
          "question": "question text",
          "options": ["option A", "option B", "option C", "option D"],
          "correctAnswer": 0,
          "explanation": "why the correct answer is right"
        }
      ],
      "codingExercises": [
        {
          "id": "ex1",
          "title": "exercise title",
          "description": "what to implement",
          "language": "python",
          "starterCode": "code the learner starts from",
          "testCases": [{"input": "sample input", "expectedOutput": "expected output"}],
          "solution": "reference solution"
        }
      ]
    }
  ]
}`)
	sb.WriteString("\n\nRequirements:\n")
	sb.WriteString("- Assign a short unique id to every lesson, question, and exercise\n")
	sb.WriteString("- correctAnswer is the 0-based index into options\n")
	sb.WriteString(fmt.Sprintf("- language must be one of: %s\n", strings.Join(sortedLanguages(), ", ")))
	sb.WriteString("- Cover all the source material; one lesson per major topic\n")
	sb.WriteString("- Every lesson gets at least two questions; add coding exercises where the material is about code\n")
	sb.WriteString("- Do not wrap the JSON in markdown fences or add commentary\n\n")

	sb.WriteString("Course material:\n\n")
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("--- FILE: %s ---\n", f.Name))
		sb.WriteString(f.Text)
		if !strings.HasSuffix(f.Text, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedLanguages() []string {
	// Fixed order keeps the prompt deterministic.
	return []string{"c", "cpp", "go", "java", "javascript", "plaintext", "python", "ruby", "rust", "typescript"}
}
