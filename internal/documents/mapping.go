package documents

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/pkg/query"
	"github.com/JaimeStill/docai/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("classification_id", "ClassificationID").
	Project("score", "Score").
	Project("summary", "Summary").
	Project("processed_at", "ProcessedAt").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "classifications", "c", "LEFT JOIN", "d.classification_id = c.id").
	Project("name", "Classification")

var dataPointProjection = query.
	NewProjectionMap("public", "extracted_data_points", "e").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("definition_id", "DefinitionID").
	Project("classification_id", "ClassificationID").
	Project("key", "Key").
	Project("data_type", "Type").
	Project("raw", "Raw").
	Project("value_string", "ValueString").
	Project("value_number", "ValueNumber").
	Project("value_date", "ValueDate").
	Project("confidence", "Confidence").
	Project("page", "Page").
	Project("span_start", "SpanStart").
	Project("span_end", "SpanEnd").
	Project("created_at", "CreatedAt").
	Join("public", "data_point_definitions", "dp", "LEFT JOIN", "e.definition_id = dp.id").
	Project("label", "Label")

var idProjection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Map("status", "Status").
	Map("updated_at", "UpdatedAt")

var idSort = query.SortField{Field: "ID"}

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

var dataPointSort = query.SortField{Field: "Key"}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Filename uses case-insensitive contains matching;
// the rest match exactly. Classification matches the classification name.
// UploadedAfter is inclusive and UploadedBefore exclusive.
type Filters struct {
	Status           *string    `json:"status,omitempty"`
	Filename         *string    `json:"filename,omitempty"`
	ContentType      *string    `json:"content_type,omitempty"`
	Classification   *string    `json:"classification,omitempty"`
	ClassificationID *uuid.UUID `json:"classification_id,omitempty"`
	UploadedAfter    *time.Time `json:"uploaded_after,omitempty"`
	UploadedBefore   *time.Time `json:"uploaded_before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Filename", f.Filename).
		WhereEquals("ContentType", f.ContentType).
		WhereEquals("Classification", f.Classification).
		WhereEquals("ClassificationID", f.ClassificationID).
		WhereAtOrAfter("UploadedAt", f.UploadedAfter).
		WhereBefore("UploadedAt", f.UploadedBefore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if ct := values.Get("content_type"); ct != "" {
		f.ContentType = &ct
	}

	if cl := values.Get("classification"); cl != "" {
		f.Classification = &cl
	}

	if cid := values.Get("classification_id"); cid != "" {
		if id, err := uuid.Parse(cid); err == nil {
			f.ClassificationID = &id
		}
	}

	f.UploadedAfter = parseTime(values.Get("uploaded_after"))
	f.UploadedBefore = parseTime(values.Get("uploaded_before"))

	return f
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(v string) *time.Time {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.Status,
		&d.ClassificationID,
		&d.Score,
		&d.Summary,
		&d.ProcessedAt,
		&d.UploadedAt,
		&d.UpdatedAt,
		&d.Classification,
	)
	return d, err
}

func scanID(s repository.Scanner) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.Scan(&id)
	return id, err
}

func scanText(s repository.Scanner) (Text, error) {
	var t Text
	err := s.Scan(&t.DocumentID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanDataPoint(s repository.Scanner) (DataPoint, error) {
	var (
		dp           DataPoint
		definitionID *uuid.UUID
	)

	err := s.Scan(
		&dp.ID,
		&dp.DocumentID,
		&definitionID,
		&dp.ClassificationID,
		&dp.Key,
		&dp.Type,
		&dp.Raw,
		&dp.ValueString,
		&dp.ValueNumber,
		&dp.ValueDate,
		&dp.Confidence,
		&dp.Page,
		&dp.SpanStart,
		&dp.SpanEnd,
		&dp.CreatedAt,
		&dp.Label,
	)

	if definitionID != nil {
		dp.DefinitionID = *definitionID
	}
	return dp, err
}
