package documents

import "github.com/JaimeStill/docai/pkg/openapi"

type spec struct {
	List       *openapi.Operation
	Upload     *openapi.Operation
	Search     *openapi.Operation
	Find       *openapi.Operation
	Delete     *openapi.Operation
	Download   *openapi.Operation
	Text       *openapi.Operation
	DataPoints *openapi.Operation
}

var idParam = openapi.PathParam("id", "Document ID")

// Spec documents the document endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary: "List documents",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search filename and classification", false),
			openapi.QueryParam("sort", "string", "Sort fields", false),
			openapi.QueryParam("status", "string", "Processing status", false),
			openapi.QueryParam("filename", "string", "Filename contains", false),
			openapi.QueryParam("content_type", "string", "Exact content type", false),
			openapi.QueryParam("classification", "string", "Classification name", false),
			openapi.QueryParam("classification_id", "string", "Classification ID", false),
			openapi.QueryParam("uploaded_after", "string", "Uploaded at or after (RFC 3339 or YYYY-MM-DD)", false),
			openapi.QueryParam("uploaded_before", "string", "Uploaded before (RFC 3339 or YYYY-MM-DD)", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document page", "DocumentPage"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload a document",
		Description: "Stores the file and, when automatic processing is enabled, queues it for processing.",
		RequestBody: openapi.RequestBodyContent("multipart/form-data", &openapi.Schema{
			Type:     "object",
			Required: []string{"file"},
			Properties: map[string]*openapi.Schema{
				"file": {Type: "string", Format: "binary"},
			},
		}, true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created document", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search documents",
		RequestBody: openapi.RequestBodyJSON("DocumentSearch", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document page", "DocumentPage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a document",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document", "Document"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a document",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Download: &openapi.Operation{
		Summary:    "Download the stored file",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseContent("File content", "application/octet-stream", &openapi.Schema{Type: "string", Format: "binary"}),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Text: &openapi.Operation{
		Summary:    "Get extracted raw text",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Raw text", "DocumentText"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	DataPoints: &openapi.Operation{
		Summary:    "List extracted data points",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseContent("Data points", "application/json", openapi.ArrayOf("DataPoint")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

// Schemas holds the component schemas referenced by Spec.
var Schemas = map[string]*openapi.Schema{
	"Document": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":                {Type: "string", Format: "uuid"},
			"filename":          {Type: "string"},
			"content_type":      {Type: "string"},
			"size_bytes":        {Type: "integer", Format: "int64"},
			"page_count":        {Type: "integer"},
			"storage_key":       {Type: "string"},
			"status":            statusSchema(),
			"classification_id": {Type: "string", Format: "uuid"},
			"classification":    {Type: "string"},
			"score":             {Type: "number"},
			"summary":           {Type: "string"},
			"processed_at":      {Type: "string", Format: "date-time"},
			"uploaded_at":       {Type: "string", Format: "date-time"},
			"updated_at":        {Type: "string", Format: "date-time"},
		},
	},
	"DocumentPage": openapi.PageOf("Document"),
	"DocumentSearch": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"page":              {Type: "integer"},
			"page_size":         {Type: "integer"},
			"search":            {Type: "string"},
			"sort":              {Type: "string"},
			"status":            statusSchema(),
			"filename":          {Type: "string"},
			"content_type":      {Type: "string"},
			"classification":    {Type: "string"},
			"classification_id": {Type: "string", Format: "uuid"},
		},
	},
	"DocumentText": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"document_id": {Type: "string", Format: "uuid"},
			"content":     {Type: "string"},
			"created_at":  {Type: "string", Format: "date-time"},
			"updated_at":  {Type: "string", Format: "date-time"},
		},
	},
	"DataPoint": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":                {Type: "string", Format: "uuid"},
			"document_id":       {Type: "string", Format: "uuid"},
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
			"created_at":        {Type: "string", Format: "date-time"},
		},
	},
}

func statusSchema() *openapi.Schema {
	return &openapi.Schema{
		Type: "string",
		Enum: []any{StatusPending, StatusProcessing, StatusCompleted, StatusFailed},
	}
}
