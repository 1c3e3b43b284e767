package processing

import "github.com/JaimeStill/docai/pkg/openapi"

type spec struct {
	Process *openapi.Operation
	Enqueue *openapi.Operation
	Batch   *openapi.Operation
	Recover *openapi.Operation
	Preview *openapi.Operation
}

var documentIDParam = openapi.PathParam("documentId", "Document ID")

// Spec documents the processing endpoints.
var Spec = spec{
	Process: &openapi.Operation{
		Summary:     "Process a document",
		Description: "Extracts text, classifies, extracts data points, and summarizes the document, then returns the outcome.",
		Parameters:  []*openapi.Parameter{documentIDParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Processing result", "ProcessingResult"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			422: openapi.ResponseRef("Unprocessable"),
		},
	},
	Enqueue: &openapi.Operation{
		Summary:    "Queue a document for background processing",
		Parameters: []*openapi.Parameter{documentIDParam},
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Queued", "Queued"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Batch: &openapi.Operation{
		Summary:     "Process a batch of documents",
		RequestBody: openapi.RequestBodyJSON("BatchRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseContent("Per-document results", "application/json", openapi.ArrayOf("BatchResult")),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
	Recover: &openapi.Operation{
		Summary:     "Recover stale processing runs",
		Description: "Fails or re-queues documents left in processing longer than the configured stale interval.",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Recovery report", "Recovery"),
		},
	},
	Preview: &openapi.Operation{
		Summary:     "Analyze text without persisting",
		RequestBody: openapi.RequestBodyJSON("PreviewRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Analysis", "Analysis"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
}

var uuidList = &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string", Format: "uuid"}}

// Schemas holds the component schemas referenced by Spec.
var Schemas = map[string]*openapi.Schema{
	"Decision": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"classification": openapi.SchemaRef("Classification"),
			"score":          {Type: "number"},
			"fallback":       {Type: "boolean", Description: "True when no classification met its threshold"},
			"candidate": {
				Type:        "object",
				Description: "Best-scoring classification, reported even when rejected",
				Properties: map[string]*openapi.Schema{
					"classification": openapi.SchemaRef("Classification"),
					"score":          {Type: "number"},
					"hits":           {Type: "integer"},
					"total":          {Type: "integer"},
				},
			},
		},
	},
	"RuleFailure": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"definition_id": {Type: "string", Format: "uuid"},
			"key":           {Type: "string"},
			"reason":        {Type: "string"},
		},
	},
	"ProcessingResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"document_id":      {Type: "string", Format: "uuid"},
			"status":           {Type: "string"},
			"decision":         openapi.SchemaRef("Decision"),
			"data_points":      {Type: "integer"},
			"failures":         {Type: "array", Items: openapi.SchemaRef("RuleFailure")},
			"dropped_patterns": {Type: "integer"},
			"summary":          {Type: "string"},
			"completed_at":     {Type: "string", Format: "date-time"},
		},
	},
	"Queued": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"document_id": {Type: "string", Format: "uuid"},
			"status":      {Type: "string", Enum: []any{"queued"}},
		},
	},
	"BatchRequest": {
		Type:       "object",
		Required:   []string{"document_ids"},
		Properties: map[string]*openapi.Schema{"document_ids": uuidList},
	},
	"BatchResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"document_id": {Type: "string", Format: "uuid"},
			"result":      openapi.SchemaRef("ProcessingResult"),
			"error":       {Type: "string"},
		},
	},
	"Recovery": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"action":   {Type: "string", Enum: []any{"requeue", "fail"}},
			"before":   {Type: "string", Format: "date-time"},
			"failed":   uuidList,
			"requeued": uuidList,
			"skipped":  uuidList,
		},
	},
	"PreviewRequest": {
		Type:       "object",
		Required:   []string{"text"},
		Properties: map[string]*openapi.Schema{"text": {Type: "string"}},
	},
	"Analysis": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"decision": openapi.SchemaRef("Decision"),
			"data_points": {
				Type:  "array",
				Items: openapi.SchemaRef("ExtractedValue"),
			},
			"missing":          {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"failures":         {Type: "array", Items: openapi.SchemaRef("RuleFailure")},
			"dropped_patterns": {Type: "integer"},
			"summary":          {Type: "string"},
		},
	},
	"ExtractedValue": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"definition_id":     {Type: "string", Format: "uuid"},
			"classification_id": {Type: "string", Format: "uuid"},
			"key":               {Type: "string"},
			"label":             {Type: "string"},
			"type":              {Type: "string"},
			"raw":               {Type: "string"},
			"value_string":      {Type: "string"},
			"value_number":      {Type: "string", Description: "Decimal string"},
			"value_date":        {Type: "string", Format: "date-time"},
			"confidence":        {Type: "number"},
			"page":              {Type: "integer"},
			"span_start":        {Type: "integer"},
			"span_end":          {Type: "integer"},
		},
	},
}
