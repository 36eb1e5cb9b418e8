package coursegen

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultMaxTokens bounds the model's reply when the request does not set
// a budget. Replies that hit the budget come back flagged as truncated.
const DefaultMaxTokens = 8192

// CourseMaker turns collected markdown into a course document through one
// chat completion call. There is no retry policy: a failed remote call or a
// failed extraction surfaces immediately to the caller.
type CourseMaker struct {
	client *openai.Client
	model  string
}

// NewCourseMaker creates a course maker with an OpenAI client.
func NewCourseMaker(apiKey string) *CourseMaker {
	return &CourseMaker{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// GenerateResult carries the normalized course together with the extraction
// stages and repair actions, so callers can log or expose them.
type GenerateResult struct {
	Course     *Course     `json:"course"`
	Repairs    []Repair    `json:"repairs,omitempty"`
	Extraction *Extraction `json:"-"`
	Truncated  bool        `json:"truncated"`
}

// GenerateCourse runs one sequential prompt -> remote call -> extract ->
// normalize pass. The reply's finish reason is consulted so a parse failure
// after a length-limited reply is reported as expected truncation rather
// than model misbehavior. logger may be nil.
func (cm *CourseMaker) GenerateCourse(ctx context.Context, req GenerationRequest, logger *LLMLogger) (*GenerateResult, error) {
	prompt := BuildPrompt(req.Files)
	model := req.Model
	if model == "" {
		model = cm.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	log.Printf("Generating course from %d markdown files (model=%s, max_tokens=%d)", len(req.Files), model, maxTokens)
	if logger != nil {
		logger.LogLLMRequest("CourseMaker", prompt)
	}

	resp, err := cm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     model,
			MaxTokens: maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an expert course designer. You convert raw course material into structured courses with lessons, quiz questions, and coding exercises. You respond with JSON only.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return nil, &RemoteCallError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &RemoteCallError{Op: "chat completion", Err: errNoChoices}
	}

	choice := resp.Choices[0]
	raw := choice.Message.Content
	truncated := choice.FinishReason == openai.FinishReasonLength

	if logger != nil {
		logger.LogLLMResponse("CourseMaker", raw)
		if truncated {
			logger.Logf("Response was cut off by the max token budget (%d)\n", maxTokens)
		}
	}
	if truncated {
		log.Printf("Model reply hit the max token budget (%d); expecting a possibly incomplete document", maxTokens)
	}

	extraction, err := ExtractJSON(raw)
	if err != nil {
		recordFailure(extraction, truncated, err)
		if logger != nil {
			logger.LogExtraction(extraction, err)
		}
		return nil, err
	}
	if logger != nil {
		logger.LogExtraction(extraction, nil)
	}

	course, repairs, err := Normalize(extraction.Parsed)
	if err != nil {
		recordFailure(extraction, truncated, err)
		return nil, err
	}

	course.ID = uuid.NewString()
	course.CreatedAt = time.Now().UTC()

	if logger != nil {
		logger.LogRepairs(repairs)
	}
	VerboseLog("Normalized course %q: %d lessons, %d repairs", course.Title, len(course.Lessons), len(repairs))

	return &GenerateResult{
		Course:     course,
		Repairs:    repairs,
		Extraction: extraction,
		Truncated:  truncated,
	}, nil
}

var errNoChoices = errors.New("no choices in model reply")

// FailureArtifacts are the diagnostics retained for the most recent failed
// generation: the raw reply, the extraction candidate, and the error
// summary. They are debugging aids, not part of the durable data model.
type FailureArtifacts struct {
	When         time.Time `json:"when"`
	RawResponse  string    `json:"raw_response"`
	Candidate    string    `json:"candidate"`
	Truncated    bool      `json:"truncated"`
	ErrorSummary string    `json:"error_summary"`
}

var (
	lastFailureMu sync.Mutex
	lastFailure   *FailureArtifacts
)

func recordFailure(ex *Extraction, truncated bool, err error) {
	lastFailureMu.Lock()
	defer lastFailureMu.Unlock()
	artifacts := &FailureArtifacts{
		When:         time.Now().UTC(),
		Truncated:    truncated,
		ErrorSummary: err.Error(),
	}
	if ex != nil {
		artifacts.RawResponse = ex.Raw
		artifacts.Candidate = ex.Candidate
	}
	lastFailure = artifacts
}

// LastFailure returns the diagnostics of the most recent failed generation,
// or nil if none has failed since startup.
func LastFailure() *FailureArtifacts {
	lastFailureMu.Lock()
	defer lastFailureMu.Unlock()
	return lastFailure
}
