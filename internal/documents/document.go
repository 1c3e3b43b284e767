// Package documents implements the document domain: upload and blob storage
// of source files, document metadata, and persistence of processing results
// (raw text, classification, extracted data points, and summary).
package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/extraction"
)

// Status is a document's processing state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s ends a processing run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Document represents an uploaded file and its latest processing results.
// Classification holds the winning classification's name.
type Document struct {
	ID               uuid.UUID  `json:"id"`
	Filename         string     `json:"filename"`
	ContentType      string     `json:"content_type"`
	SizeBytes        int64      `json:"size_bytes"`
	PageCount        *int       `json:"page_count"`
	StorageKey       string     `json:"storage_key"`
	Status           Status     `json:"status"`
	ClassificationID *uuid.UUID `json:"classification_id"`
	Score            *float64   `json:"score"`
	Summary          *string    `json:"summary"`
	ProcessedAt      *time.Time `json:"processed_at"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Classification   *string    `json:"classification"`
}

// CreateCommand carries the data needed to upload and register a new document.
// PageCount is optional; nil values are stored as NULL.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
}

// Text is the raw text extracted from a document.
type Text struct {
	DocumentID uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DataPoint is a persisted extracted value.
type DataPoint struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	extraction.DataPoint
	CreatedAt time.Time `json:"created_at"`
}
