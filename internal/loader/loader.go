// Package loader reads plain-text and markdown source documents from a
// data directory. Markdown is reduced to plain text before ingestion;
// anything richer than that is out of scope.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/otto-edu/otto/internal/ingest"
)

// DefaultInclude matches the file types the loader understands.
var DefaultInclude = []string{"**/*.txt", "**/*.md"}

// LoadDir walks dir and returns one Document per matching file, sorted
// by path for deterministic ordering. include/exclude are doublestar
// glob patterns applied to the slash-separated path relative to dir;
// empty include means DefaultInclude.
func LoadDir(dir string, include, exclude []string) ([]ingest.Document, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	var docs []ingest.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(include, rel) || matchesAny(exclude, rel) {
			return nil
		}

		doc, err := loadFile(path, rel)
		if err != nil {
			return fmt.Errorf("loading %s: %w", rel, err)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func loadFile(path, rel string) (ingest.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ingest.Document{}, err
	}

	text := string(raw)
	if strings.EqualFold(filepath.Ext(path), ".md") {
		text = markdownToText(raw)
	}

	return ingest.Document{
		ID:     documentID(rel),
		Source: rel,
		Text:   text,
	}, nil
}

// documentID derives a stable identifier from the relative path:
// "bncc/2024 revision.txt" -> "bncc-2024-revision".
func documentID(rel string) string {
	id := strings.TrimSuffix(rel, filepath.Ext(rel))
	id = strings.ToLower(id)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, id)
	for strings.Contains(mapped, "--") {
		mapped = strings.ReplaceAll(mapped, "--", "-")
	}
	return strings.Trim(mapped, "-")
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
