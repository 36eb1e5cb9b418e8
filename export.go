package coursegen

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// sanitizeAnchor maps an entity id to an attribute-safe anchor by replacing
// every character outside [A-Za-z0-9_-] with '-'. Source ids may contain
// arbitrary model-supplied text.
func sanitizeAnchor(id string) string {
	var sb strings.Builder
	sb.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// archiveName derives a download file name from a course title: runs of
// non-alphanumeric characters collapse to a single separator.
func archiveName(title string) string {
	var sb strings.Builder
	lastSep := true
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				sb.WriteByte('-')
				lastSep = true
			}
		}
	}
	name := strings.TrimSuffix(sb.String(), "-")
	if name == "" {
		name = "course"
	}
	return name
}

var exportTmpl = template.Must(template.New("export").Funcs(template.FuncMap{
	"anchor": sanitizeAnchor,
}).Parse(exportPage))

// RenderHTML renders a course into one self-contained interactive HTML
// document: inline styles, inline script, the full course as an inline data
// literal, and no network calls at view time. All user-supplied text is
// escaped by the template engine; the data literal is JSON-marshaled, which
// escapes angle brackets inside strings so it cannot close the script tag.
// Output is deterministic for the same course value.
func RenderHTML(course *Course) (string, error) {
	data, err := json.Marshal(course)
	if err != nil {
		return "", fmt.Errorf("failed to marshal course: %w", err)
	}

	var buf bytes.Buffer
	err = exportTmpl.Execute(&buf, map[string]interface{}{
		"Course":     course,
		"CourseJSON": template.JS(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render course %s: %w", course.ID, err)
	}
	return buf.String(), nil
}

// ExportArchive renders the course and packages it as a zip archive in a
// staging directory scoped to the course id. Any residue from a previous
// export of the same course is removed first. The caller must invoke
// cleanup after the archive has been sent, on success and failure paths
// alike.
func ExportArchive(course *Course, baseDir string) (archivePath string, cleanup func() error, err error) {
	staging := filepath.Join(baseDir, "export-"+sanitizeAnchor(course.ID))
	cleanup = func() error { return os.RemoveAll(staging) }

	if err := os.RemoveAll(staging); err != nil {
		return "", cleanup, fmt.Errorf("failed to clear export directory: %w", err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", cleanup, fmt.Errorf("failed to create export directory: %w", err)
	}

	page, err := RenderHTML(course)
	if err != nil {
		return "", cleanup, err
	}
	htmlPath := filepath.Join(staging, "index.html")
	if err := os.WriteFile(htmlPath, []byte(page), 0644); err != nil {
		return "", cleanup, fmt.Errorf("failed to write export html: %w", err)
	}

	archivePath = filepath.Join(staging, archiveName(course.Title)+".zip")
	if err := writeZip(archivePath, "index.html", []byte(page)); err != nil {
		return "", cleanup, err
	}
	return archivePath, cleanup, nil
}

func writeZip(path, entryName string, content []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(entryName)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to add %s to archive: %w", entryName, err)
	}
	if _, err := w.Write(content); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

const exportPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Course.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 860px; margin: 0 auto; padding: 2rem 1rem; color: #222; }
header { border-bottom: 2px solid #444; margin-bottom: 2rem; }
.lesson { margin-bottom: 3rem; }
.content { white-space: pre-wrap; line-height: 1.5; }
.question, .exercise { border: 1px solid #ccc; border-radius: 6px; padding: 1rem; margin: 1rem 0; }
.options { list-style: none; padding: 0; }
.options li { margin: 0.25rem 0; }
button { font: inherit; cursor: pointer; }
.option { display: block; width: 100%; text-align: left; padding: 0.5rem; border: 1px solid #bbb; border-radius: 4px; background: #fafafa; }
.option.selected { border-color: #2460a7; background: #e8f0fb; }
.option.correct { border-color: #1d7a38; background: #e4f5e9; }
.option.incorrect { border-color: #a72424; background: #fbe8e8; }
.check, .toggle-solution { margin-top: 0.5rem; padding: 0.4rem 0.9rem; }
.explanation { font-style: italic; color: #444; }
pre { background: #f4f4f4; padding: 0.75rem; overflow-x: auto; border-radius: 4px; }
.tests { border-collapse: collapse; margin: 0.5rem 0; }
.tests th, .tests td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
.hidden { display: none; }
</style>
</head>
<body>
<header>
<h1>{{.Course.Title}}</h1>
<p>{{.Course.Description}}</p>
</header>
{{range .Course.Lessons}}{{$lid := anchor .ID}}
<section class="lesson" id="lesson-{{$lid}}">
<h2>{{.Title}}</h2>
<div class="content">{{.Content}}</div>
{{range .Questions}}
<div class="question" data-key="{{$lid}}-{{anchor .ID}}" id="{{$lid}}-{{anchor .ID}}">
<p class="qtext">{{.Question}}</p>
<ul class="options">
{{range $i, $opt := .Options}}<li><button type="button" class="option" data-idx="{{$i}}">{{$opt}}</button></li>
{{end}}</ul>
<button type="button" class="check">Check answer</button>
<p class="explanation hidden">{{.Explanation}}</p>
</div>
{{end}}
{{range .CodingExercises}}
<div class="exercise" data-key="{{$lid}}-{{anchor .ID}}" id="{{$lid}}-{{anchor .ID}}">
<h3>{{.Title}} <small>({{.Language}})</small></h3>
<p>{{.Description}}</p>
<pre class="starter"><code>{{.StarterCode}}</code></pre>
{{if .TestCases}}<table class="tests">
<tr><th>Input</th><th>Expected output</th></tr>
{{range .TestCases}}<tr><td><code>{{.Input}}</code></td><td><code>{{.ExpectedOutput}}</code></td></tr>
{{end}}</table>
{{end}}<button type="button" class="toggle-solution">Show solution</button>
<pre class="solution hidden"><code>{{.Solution}}</code></pre>
</div>
{{end}}
</section>
{{end}}
<script>
var COURSE = {{.CourseJSON}};
(function () {
	var sanitize = function (s) { return String(s).replace(/[^A-Za-z0-9_-]/g, "-"); };
	var byKey = Object.create(null);
	(COURSE.lessons || []).forEach(function (lesson) {
		var lid = sanitize(lesson.id);
		(lesson.questions || []).forEach(function (q) {
			byKey[lid + "-" + sanitize(q.id)] = q;
		});
	});
	document.querySelectorAll(".question").forEach(function (el) {
		var q = byKey[el.getAttribute("data-key")];
		if (!q) return;
		var selected = -1;
		var options = el.querySelectorAll(".option");
		options.forEach(function (btn, i) {
			btn.addEventListener("click", function () {
				selected = i;
				options.forEach(function (b) { b.classList.remove("selected", "correct", "incorrect"); });
				btn.classList.add("selected");
			});
		});
		el.querySelector(".check").addEventListener("click", function () {
			if (selected < 0) return;
			options.forEach(function (b, i) {
				b.classList.remove("correct", "incorrect");
				if (i === q.correctAnswer) b.classList.add("correct");
			});
			if (selected !== q.correctAnswer) options[selected].classList.add("incorrect");
			var explanation = el.querySelector(".explanation");
			if (explanation) explanation.classList.remove("hidden");
		});
	});
	document.querySelectorAll(".exercise").forEach(function (el) {
		var btn = el.querySelector(".toggle-solution");
		var solution = el.querySelector(".solution");
		if (!btn || !solution) return;
		btn.addEventListener("click", function () {
			var hidden = solution.classList.toggle("hidden");
			btn.textContent = hidden ? "Show solution" : "Hide solution";
		});
	});
})();
</script>
</body>
</html>
`
