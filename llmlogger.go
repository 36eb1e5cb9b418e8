package coursegen

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a per-generation transcript of all LLM interactions:
// the prompt, the raw reply, the extraction stages, and the repairs the
// normalizer applied.
type LLMLogger struct {
	file     *os.File
	mu       sync.Mutex
	courseID string
}

// NewLLMLogger creates a transcript logger under log/ keyed by the
// generation id.
func NewLLMLogger(generationID string, req GenerationRequest) (*LLMLogger, error) {
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s.log", generationID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:     file,
		courseID: generationID,
	}

	logger.Logf("=== Course Generation Log ===\n")
	logger.Logf("Generation ID: %s\n", generationID)
	logger.Logf("Source Files: %d\n", len(req.Files))
	for _, f := range req.Files {
		logger.Logf("  %s (%d characters)\n", f.Name, len(f.Text))
	}
	if req.Model != "" {
		logger.Logf("Model: %s\n", req.Model)
	}
	if req.MaxTokens > 0 {
		logger.Logf("Max Tokens: %d\n", req.MaxTokens)
	}
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(ll.file, "[%s] %s", timestamp, message)
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogExtraction logs the extraction candidate and outcome.
func (ll *LLMLogger) LogExtraction(ex *Extraction, err error) {
	if ex == nil {
		return
	}
	ll.Logf("=== EXTRACTION ===\n")
	ll.Logf("Candidate (%d bytes, incomplete=%v, brace_mismatch=%v):\n%s\n",
		len(ex.Candidate), ex.Incomplete, ex.BraceMismatch, ex.Candidate)
	if err != nil {
		ll.Logf("Extraction error: %v\n", err)
	}
	ll.Logf("==================\n\n")
}

// LogRepairs logs the repair actions the normalizer took, one per line.
func (ll *LLMLogger) LogRepairs(repairs []Repair) {
	if len(repairs) == 0 {
		ll.Logf("Normalization: no repairs needed\n")
		return
	}
	ll.Logf("Normalization repairs (%d):\n", len(repairs))
	for _, r := range repairs {
		ll.Logf("  %s: %s %s\n", r.Path, r.Action, r.Detail)
	}
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file != nil {
		return ll.file.Close()
	}
	return nil
}
