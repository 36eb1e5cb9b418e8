package coursegen

import (
	"encoding/json"
	"errors"
	"strings"
)

// Extraction holds the stages of recovering a JSON object from a model
// reply. Raw is the reply as received, Candidate the text handed to the
// JSON parser, Parsed the candidate after a successful parse. Incomplete is
// set when the source ended before the object closed (length-limited
// output); BraceMismatch is the cheap corruption signal from comparing
// brace counts (parsing stays the authoritative check).
type Extraction struct {
	Raw           string          `json:"raw"`
	Candidate     string          `json:"candidate"`
	Incomplete    bool            `json:"incomplete"`
	BraceMismatch bool            `json:"brace_mismatch"`
	Parsed        json.RawMessage `json:"parsed,omitempty"`
}

// ExtractJSON recovers one well-formed JSON object from free-form model
// output. Preference order: a fenced block labeled json, any fenced block,
// then a depth-counted scan from the first brace that ignores braces inside
// double-quoted strings. A scan that hits end-of-input marks the result
// possibly incomplete instead of failing; the parse raises the real error.
//
// On failure the returned Extraction still carries the raw text and the
// candidate, so callers can retain them as diagnostic artifacts.
func ExtractJSON(raw string) (*Extraction, error) {
	ex := &Extraction{Raw: raw}

	var candidate string
	if blocks := fencedBlocks(raw); len(blocks) > 0 {
		pick := blocks[0]
		for _, b := range blocks {
			if b.label == "json" {
				pick = b
				break
			}
		}
		candidate = pick.body
		ex.Incomplete = !pick.closed
	} else if start := strings.IndexByte(raw, '{'); start != -1 {
		end, complete := scanObject(raw, start)
		candidate = raw[start:end]
		ex.Incomplete = !complete
	}

	candidate = strings.TrimSpace(candidate)
	if candidate != "" && candidate[0] != '{' {
		if i := strings.IndexByte(candidate, '{'); i != -1 {
			candidate = candidate[i:]
		} else {
			candidate = ""
		}
	}
	// Trailing prose after the close brace is discarded. A possibly
	// incomplete candidate is kept whole: cutting it back to an interior
	// '}' would destroy the diagnostic value of the partial tail.
	if !ex.Incomplete && candidate != "" && candidate[len(candidate)-1] != '}' {
		if i := strings.LastIndexByte(candidate, '}'); i != -1 {
			candidate = candidate[:i+1]
		}
	}
	ex.Candidate = candidate

	if candidate == "" {
		return ex, &ExtractionError{Reason: "empty"}
	}

	if opens, closes := strings.Count(candidate, "{"), strings.Count(candidate, "}"); opens != closes {
		ex.BraceMismatch = true
		VerboseLog("extraction candidate has unbalanced braces: %d open, %d close (incomplete=%v)", opens, closes, ex.Incomplete)
	}

	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		pos := 0
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			pos = int(syn.Offset)
		}
		return ex, &ExtractionError{
			Reason:   "parse-failed",
			Position: pos,
			Snippet:  snippetAround(candidate, pos, 40),
		}
	}
	ex.Parsed = json.RawMessage(candidate)
	return ex, nil
}

type fencedBlock struct {
	label  string
	body   string
	closed bool
}

// fencedBlocks returns the interiors of all ``` code fences in order. An
// unterminated final fence is returned with closed=false and its body
// running to end-of-input, which happens when the model is cut off inside
// its own fence.
func fencedBlocks(s string) []fencedBlock {
	var out []fencedBlock
	for {
		open := strings.Index(s, "```")
		if open == -1 {
			return out
		}
		rest := s[open+3:]
		nl := strings.IndexByte(rest, '\n')
		if nl == -1 {
			return out
		}
		label := strings.ToLower(strings.TrimSpace(rest[:nl]))
		body := rest[nl+1:]
		end := strings.Index(body, "```")
		if end == -1 {
			return append(out, fencedBlock{label: label, body: body})
		}
		out = append(out, fencedBlock{label: label, body: body[:end], closed: true})
		s = body[end+3:]
	}
}

// scanObject walks s from start (which must point at '{'), counting brace
// depth while treating everything inside double-quoted strings, backslash
// escapes included, as non-structural. Returns the index one past the
// matching close brace, or len(s) and false if input ends first.
func scanObject(s string, start int) (end int, complete bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(s), false
}

// snippetAround returns a bounded window of s centered on pos.
func snippetAround(s string, pos, radius int) string {
	lo := pos - radius
	if lo < 0 {
		lo = 0
	}
	hi := pos + radius
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}
