package coursegen

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	raw := "Here is your course:\n```json\n{\"title\":\"X\",\"lessons\":[]}\n```\nEnjoy!"
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != `{"title":"X","lessons":[]}` {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
	if ex.Incomplete {
		t.Fatal("complete fenced block marked incomplete")
	}
}

func TestExtractJSONPrefersLabeledFence(t *testing.T) {
	raw := "```\nnot the payload\n```\nbut this is:\n```json\n{\"title\":\"Y\",\"lessons\":[]}\n```"
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != `{"title":"Y","lessons":[]}` {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
}

func TestExtractJSONFenceLabelCaseInsensitive(t *testing.T) {
	raw := "```JSON\n{\"title\":\"Z\",\"lessons\":[]}\n```"
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != `{"title":"Z","lessons":[]}` {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
}

func TestExtractJSONFencedIgnoresBracesInProse(t *testing.T) {
	raw := "Some notes {with braces} first.\n```json\n{\"title\":\"X\",\"lessons\":[]}\n```\nMore {notes} after."
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != `{"title":"X","lessons":[]}` {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	object := `{"title":"T","code":"if (x) { return","more":"} } }","lessons":[]}`
	raw := "Sure, here it is: " + object + " and some trailing {prose} too"
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != object {
		t.Fatalf("scan miscounted braces inside strings:\n got %q\nwant %q", ex.Candidate, object)
	}
}

func TestExtractJSONEscapedQuotesInsideStrings(t *testing.T) {
	object := `{"title":"she said \" } \" done","lessons":[]}`
	raw := "reply: " + object + " bye"
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != object {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
}

func TestExtractJSONBareObjectWithProse(t *testing.T) {
	raw := `The course: {"title":"X","lessons":[]} hope you like it`
	ex, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Candidate != `{"title":"X","lessons":[]}` {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
}

func TestExtractJSONTruncatedObject(t *testing.T) {
	raw := `{"title":"T","lessons":[{"id":"l1","title":"Less`
	ex, err := ExtractJSON(raw)
	if err == nil {
		t.Fatal("expected parse failure for truncated object")
	}
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %T: %v", err, err)
	}
	if extractionErr.Reason != "parse-failed" {
		t.Fatalf("expected reason parse-failed, got %q", extractionErr.Reason)
	}
	if !ex.Incomplete {
		t.Fatal("truncated object not flagged incomplete")
	}
	if ex.Candidate != raw {
		t.Fatalf("truncated candidate should keep the partial tail, got %q", ex.Candidate)
	}
}

func TestExtractJSONTruncatedInsideString(t *testing.T) {
	// The close brace inside the string must not end the scan early.
	raw := `{"title":"abc}`
	ex, err := ExtractJSON(raw)
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if !ex.Incomplete {
		t.Fatal("expected incomplete flag")
	}
	if ex.Candidate != raw {
		t.Fatalf("wrong candidate: %q", ex.Candidate)
	}
}

func TestExtractJSONUnterminatedFence(t *testing.T) {
	raw := "```json\n{\"title\":\"T\",\"lessons\":["
	ex, err := ExtractJSON(raw)
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if !ex.Incomplete {
		t.Fatal("unterminated fence not flagged incomplete")
	}
}

func TestExtractJSONEmpty(t *testing.T) {
	for _, raw := range []string{"", "no json here at all", "``` \n\n```"} {
		_, err := ExtractJSON(raw)
		var extractionErr *ExtractionError
		if !errors.As(err, &extractionErr) {
			t.Fatalf("input %q: expected ExtractionError, got %v", raw, err)
		}
		if extractionErr.Reason != "empty" {
			t.Fatalf("input %q: expected reason empty, got %q", raw, extractionErr.Reason)
		}
	}
}

func TestExtractJSONBraceMismatchNonFatal(t *testing.T) {
	ex, err := ExtractJSON(`{"a":"{"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ex.BraceMismatch {
		t.Fatal("expected brace mismatch signal")
	}
	if len(ex.Parsed) == 0 {
		t.Fatal("expected parsed output despite mismatch signal")
	}
}

func TestExtractJSONParseErrorSnippet(t *testing.T) {
	raw := `{"title":"T","lessons":[}]}`
	_, err := ExtractJSON(raw)
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if extractionErr.Reason != "parse-failed" {
		t.Fatalf("expected parse-failed, got %q", extractionErr.Reason)
	}
	if extractionErr.Position <= 0 {
		t.Fatalf("expected a parser offset, got %d", extractionErr.Position)
	}
	if extractionErr.Snippet == "" || !strings.Contains(raw, extractionErr.Snippet) {
		t.Fatalf("snippet %q should be a window of the candidate", extractionErr.Snippet)
	}
}

func TestScanObjectDepth(t *testing.T) {
	s := `{"a":{"b":{"c":1}}} tail`
	end, complete := scanObject(s, 0)
	if !complete {
		t.Fatal("expected complete scan")
	}
	if s[:end] != `{"a":{"b":{"c":1}}}` {
		t.Fatalf("wrong boundary: %q", s[:end])
	}
}
