package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"coursegen"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

const sessionName = "coursegen-session"

// maxUploadBytes caps multipart course-material uploads.
const maxUploadBytes = 32 << 20

type Server struct {
	db        *coursegen.DB
	generator *coursegen.Generator
	store     *sessions.CookieStore
}

type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func main() {
	godotenv.Load()
	coursegen.SetVerbose(os.Getenv("COURSEGEN_VERBOSE") == "1")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	dbPath := os.Getenv("COURSEGEN_DB")
	if dbPath == "" {
		dbPath = "./courses.db"
	}

	db, err := coursegen.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	server := &Server{
		db:        db,
		generator: coursegen.NewGenerator(apiKey, db),
		store:     sessions.NewCookieStore(sessionKey()),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/courses", server.handleCreateCourse).Methods("POST")
	r.HandleFunc("/api/courses", server.handleListCourses).Methods("GET")
	r.HandleFunc("/api/courses/{id}", server.handleGetCourse).Methods("GET")
	r.HandleFunc("/api/courses/{id}", server.handleReplaceCourse).Methods("PUT")
	r.HandleFunc("/api/courses/{id}/export", server.handleExport).Methods("GET")
	r.HandleFunc("/api/mode", server.handleGetMode).Methods("GET")
	r.HandleFunc("/api/mode", server.handleSetMode).Methods("POST")
	r.HandleFunc("/api/debug/lastfailure", server.handleLastFailure).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting course server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

// sessionKey reads SESSION_KEY or falls back to a random per-boot key. The
// session only carries the edit-mode display toggle, so losing it on
// restart is harmless and nothing secret ends up embedded in the binary.
func sessionKey() []byte {
	if key := os.Getenv("SESSION_KEY"); key != "" {
		return []byte(key)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate session key: %v", err)
	}
	return key
}

// handleCreateCourse accepts either a multipart upload of markdown files or
// a JSON body naming a directory on the server, runs the generation
// pipeline, and returns the generated, normalized course.
func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var files []coursegen.SourceFile
	var model string
	var maxTokens int

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to parse upload", Details: err.Error()})
			return
		}
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read uploaded file", Details: err.Error()})
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read uploaded file", Details: err.Error()})
				return
			}
			files = append(files, coursegen.SourceFile{Name: header.Filename, Text: string(data)})
		}
		model = r.FormValue("model")
		maxTokens, _ = strconv.Atoi(r.FormValue("max_tokens"))
	} else {
		var body struct {
			Path      string `json:"path"`
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body", Details: err.Error()})
			return
		}
		if body.Path == "" {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "path is required"})
			return
		}
		collected, err := coursegen.CollectMarkdown(body.Path)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to collect markdown", Details: err.Error()})
			return
		}
		files = collected
		model = body.Model
		maxTokens = body.MaxTokens
	}

	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "no markdown files provided"})
		return
	}

	result, err := s.generator.GenerateFromFiles(r.Context(), files, model, maxTokens)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid since parameter", Details: "expected RFC3339 timestamp"})
			return
		}
		since = parsed
	}

	summaries, err := s.db.ListCourses(since)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []coursegen.CourseSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.db.GetCourse(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// handleReplaceCourse overwrites the whole stored document. The incoming
// tree goes through the same normalization pass as generated output, so
// hand-edited documents get the same repairs.
func (s *Server) handleReplaceCourse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read request body", Details: err.Error()})
		return
	}

	course, repairs, err := coursegen.Normalize(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, rep := range repairs {
		coursegen.VerboseLog("Repair on update: %s %s %s", rep.Path, rep.Action, rep.Detail)
	}

	stored, err := s.db.ReplaceCourse(mux.Vars(r)["id"], course)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleExport streams a zip archive of the standalone HTML export. The
// staging directory and archive are removed once the response is sent,
// whether or not serving succeeded.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	course, err := s.db.GetCourse(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	archivePath, cleanup, err := coursegen.ExportArchive(course, os.TempDir())
	defer func() {
		if err := cleanup(); err != nil {
			log.Printf("Failed to clean export directory: %v", err)
		}
	}()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(archivePath)+"\"")
	http.ServeFile(w, r, archivePath)
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, sessionName)
	editMode, _ := session.Values["editMode"].(bool)
	writeJSON(w, http.StatusOK, map[string]bool{"editMode": editMode})
}

// handleSetMode toggles the edit-mode display state for this browser
// session. It is a view preference, not an access control boundary.
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EditMode bool `json:"editMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body", Details: err.Error()})
		return
	}

	session, _ := s.store.Get(r, sessionName)
	session.Values["editMode"] = body.EditMode
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"editMode": body.EditMode})
}

func (s *Server) handleLastFailure(w http.ResponseWriter, r *http.Request) {
	failure := coursegen.LastFailure()
	if failure == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no failed generation recorded"})
		return
	}
	writeJSON(w, http.StatusOK, failure)
}

// writeError is the single place typed pipeline errors become user-facing
// statuses and messages.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var notFound *coursegen.NotFoundError
	var validation *coursegen.ValidationError
	var extraction *coursegen.ExtractionError
	var remote *coursegen.RemoteCallError

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, apiError{Error: "course not found"})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "invalid course document", Details: validation.Error()})
	case errors.As(err, &extraction):
		writeJSON(w, http.StatusBadGateway, apiError{Error: "model reply contained no usable course", Details: extraction.Error()})
	case errors.As(err, &remote):
		log.Printf("Remote call failed: %v", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "generation service unavailable"})
	default:
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
