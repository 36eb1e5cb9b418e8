package coursegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCollectMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# Second")
	writeFile(t, dir, "a.md", "# First")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, filepath.Join(dir, "nested"), "c.markdown", "# Third")

	files, err := CollectMarkdown(dir)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 markdown files, got %d", len(files))
	}
	// Walk order is lexical by path.
	wantNames := []string{"a.md", "b.md", "nested/c.markdown"}
	for i, want := range wantNames {
		if files[i].Name != want {
			t.Fatalf("file %d: expected %q, got %q", i, want, files[i].Name)
		}
	}
	if files[0].Text != "# First" {
		t.Fatalf("wrong content for a.md: %q", files[0].Text)
	}
}

func TestCollectMarkdownEmptyDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.txt", "not markdown")
	if _, err := CollectMarkdown(dir); err == nil {
		t.Fatal("expected error when no markdown files exist")
	}
}

func TestCollectMarkdownMissingDir(t *testing.T) {
	if _, err := CollectMarkdown(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestBuildPrompt(t *testing.T) {
	files := []SourceFile{
		{Name: "intro.md", Text: "# Intro\nWelcome."},
		{Name: "ch1.md", Text: "# Chapter 1"},
	}

	prompt := BuildPrompt(files)

	for _, want := range []string{
		"--- FILE: intro.md ---",
		"--- FILE: ch1.md ---",
		"# Intro\nWelcome.",
		`"correctAnswer"`,
		`"codingExercises"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Index(prompt, "intro.md") > strings.Index(prompt, "ch1.md") {
		t.Fatal("files out of order in prompt")
	}
	if prompt != BuildPrompt(files) {
		t.Fatal("prompt not deterministic")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
