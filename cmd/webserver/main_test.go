package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCourseRejectsOversizedUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "big.md")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte("a"), maxUploadBytes+1024)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/courses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()

	s := &Server{}
	s.handleCreateCourse(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for upload over the size limit, got %d", rr.Code)
	}
}

func TestCreateCourseRejectsEmptyUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/courses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()

	s := &Server{}
	s.handleCreateCourse(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for upload with no files, got %d", rr.Code)
	}
}
