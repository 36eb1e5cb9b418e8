package coursegen

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Generator runs the full course creation pipeline: collect -> prompt ->
// remote call -> extract -> normalize -> persist. Each call is one
// sequential pass with no internal parallelism; concurrent calls for
// different courses share no mutable state.
type Generator struct {
	maker *CourseMaker
	db    *DB
}

// NewGenerator creates a generator. db may be nil, in which case generated
// courses are returned without being persisted.
func NewGenerator(apiKey string, db *DB) *Generator {
	return &Generator{
		maker: NewCourseMaker(apiKey),
		db:    db,
	}
}

// GenerateFromDir collects markdown files under dir and generates a course
// from them.
func (g *Generator) GenerateFromDir(ctx context.Context, dir string, model string, maxTokens int) (*GenerateResult, error) {
	files, err := CollectMarkdown(dir)
	if err != nil {
		return nil, err
	}
	return g.GenerateFromFiles(ctx, files, model, maxTokens)
}

// GenerateFromFiles generates a course from an already collected file set
// and persists it when a store is configured.
func (g *Generator) GenerateFromFiles(ctx context.Context, files []SourceFile, model string, maxTokens int) (*GenerateResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files provided")
	}

	req := GenerationRequest{Files: files, Model: model, MaxTokens: maxTokens}

	generationID := uuid.NewString()
	logger, err := NewLLMLogger(generationID, req)
	if err != nil {
		log.Printf("Failed to create transcript logger: %v", err)
		// Continue without the transcript rather than failing the pipeline.
		logger = nil
	} else {
		defer logger.Close()
	}

	result, err := g.maker.GenerateCourse(ctx, req, logger)
	if err != nil {
		return nil, err
	}

	if g.db != nil {
		if err := g.db.CreateCourse(result.Course); err != nil {
			return nil, err
		}
		VerboseLog("Stored course %s (%q)", result.Course.ID, result.Course.Title)
	}
	return result, nil
}
