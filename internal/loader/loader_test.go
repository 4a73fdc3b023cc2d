package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadDir_DefaultsAndOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a.txt", "first")
	writeFile(t, dir, "notes/c.md", "# Heading\n\nbody")
	writeFile(t, dir, "skip.json", `{"not": "loaded"}`)

	docs, err := LoadDir(dir, nil, nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i-1].ID >= docs[i].ID {
			t.Fatalf("documents not sorted: %q before %q", docs[i-1].ID, docs[i].ID)
		}
	}
}

func TestLoadDir_Exclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt", "keep")
	writeFile(t, dir, "drafts/drop.txt", "drop")

	docs, err := LoadDir(dir, nil, []string{"drafts/**"})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "keep" {
		t.Fatalf("exclude pattern not applied: %+v", docs)
	}
}

func TestLoadDir_MarkdownStripped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "# Title\n\nSome *emphasised* text.\n\n```\ncode line\n```\n")

	docs, err := LoadDir(dir, nil, nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	text := docs[0].Text
	if strings.Contains(text, "#") || strings.Contains(text, "*") || strings.Contains(text, "```") {
		t.Errorf("markdown syntax survived stripping: %q", text)
	}
	for _, want := range []string{"Title", "emphasised", "code line"} {
		if !strings.Contains(text, want) {
			t.Errorf("stripped text missing %q: %q", want, text)
		}
	}
}

func TestDocumentID(t *testing.T) {
	cases := map[string]string{
		"bncc/2024 Revision.txt": "bncc-2024-revision",
		"simple.md":              "simple",
		"a__b.txt":               "a-b",
	}
	for rel, want := range cases {
		if got := documentID(rel); got != want {
			t.Errorf("documentID(%q) = %q, want %q", rel, got, want)
		}
	}
}
