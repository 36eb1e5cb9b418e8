package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"coursegen"

	"github.com/joho/godotenv"
)

func main() {
	var (
		dir        = flag.String("dir", "", "Directory of markdown files to generate from (required)")
		outputFile = flag.String("output", "", "Output file for course JSON (default: stdout)")
		exportFile = flag.String("export", "", "Also write the standalone HTML export to this file")
		dbPath     = flag.String("db", "", "SQLite database to store the course in (optional)")
		apiKey     = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		model      = flag.String("model", "", "Model to use (default: gpt-4o)")
		maxTokens  = flag.Int("max-tokens", 0, "Max output token budget for the model reply")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	godotenv.Load()
	coursegen.SetVerbose(*verbose)

	if *dir == "" {
		log.Fatal("Source directory is required. Use -dir flag.")
	}

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	var db *coursegen.DB
	if *dbPath != "" {
		var err error
		db, err = coursegen.OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.CloseDB()
		if err := db.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
	}

	generator := coursegen.NewGenerator(*apiKey, db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := generator.GenerateFromDir(ctx, *dir, *model, *maxTokens)
	if err != nil {
		log.Fatalf("Failed to generate course: %v", err)
	}

	if result.Truncated {
		log.Printf("Warning: model output was cut off by the token budget; course may be partial")
	}
	for _, r := range result.Repairs {
		log.Printf("Repair: %s %s %s", r.Path, r.Action, r.Detail)
	}

	output, err := json.MarshalIndent(result.Course, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal course: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Course saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}

	if *exportFile != "" {
		page, err := coursegen.RenderHTML(result.Course)
		if err != nil {
			log.Fatalf("Failed to render export: %v", err)
		}
		if err := os.WriteFile(*exportFile, []byte(page), 0644); err != nil {
			log.Fatalf("Failed to write export file: %v", err)
		}
		log.Printf("Standalone HTML export saved to: %s", *exportFile)
	}
}
