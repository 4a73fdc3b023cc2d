package ingest

import "time"

// Document is a source document to be ingested. Documents are immutable
// once ingested; re-ingesting the same ID replaces its passages.
type Document struct {
	ID         string
	Source     string
	Text       string
	IngestedAt time.Time
}
