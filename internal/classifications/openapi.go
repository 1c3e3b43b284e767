package classifications

import "github.com/JaimeStill/docai/pkg/openapi"

type spec struct {
	List             *openapi.Operation
	Create           *openapi.Operation
	Search           *openapi.Operation
	Export           *openapi.Operation
	Import           *openapi.Operation
	Find             *openapi.Operation
	Update           *openapi.Operation
	Delete           *openapi.Operation
	ListPatterns     *openapi.Operation
	AddPatterns      *openapi.Operation
	DeletePattern    *openapi.Operation
	ListDefinitions  *openapi.Operation
	AddDefinitions   *openapi.Operation
	DeleteDefinition *openapi.Operation
}

var idParam = openapi.PathParam("id", "Classification ID")

// Spec documents the classification endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary: "List classifications",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search name and description", false),
			openapi.QueryParam("sort", "string", "Sort fields", false),
			openapi.QueryParam("name", "string", "Name contains", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Classification page", "ClassificationPage"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create a classification",
		RequestBody: openapi.RequestBodyJSON("ClassificationCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created classification", "Classification"),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search classifications",
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Classification page", "ClassificationPage"),
		},
	},
	Export: &openapi.Operation{
		Summary: "Export rule configuration as YAML",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseContent("YAML rule bundle", "application/yaml", &openapi.Schema{Type: "string"}),
		},
	},
	Import: &openapi.Operation{
		Summary: "Import a YAML rule bundle",
		RequestBody: openapi.RequestBodyContent("application/yaml", &openapi.Schema{Type: "string"}, true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Import summary", "ImportResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a classification",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Classification", "Classification"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update a classification",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("ClassificationCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated classification", "Classification"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a classification",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	ListPatterns: &openapi.Operation{
		Summary:    "List patterns",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseContent("Patterns", "application/json", openapi.ArrayOf("Pattern")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	AddPatterns: &openapi.Operation{
		Summary:    "Add patterns",
		Parameters: []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyContent("application/json", openapi.ArrayOf("PatternCommand"), true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseContent("Created patterns", "application/json", openapi.ArrayOf("Pattern")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	DeletePattern: &openapi.Operation{
		Summary: "Delete a pattern",
		Parameters: []*openapi.Parameter{
			idParam,
			openapi.PathParam("patternId", "Pattern ID"),
		},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	ListDefinitions: &openapi.Operation{
		Summary:    "List data point definitions",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseContent("Definitions", "application/json", openapi.ArrayOf("Definition")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	AddDefinitions: &openapi.Operation{
		Summary:    "Add data point definitions",
		Parameters: []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyContent("application/json", openapi.ArrayOf("DefinitionCommand"), true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseContent("Created definitions", "application/json", openapi.ArrayOf("Definition")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	DeleteDefinition: &openapi.Operation{
		Summary: "Delete a data point definition",
		Parameters: []*openapi.Parameter{
			idParam,
			openapi.PathParam("definitionId", "Definition ID"),
		},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

// Schemas holds the component schemas referenced by Spec.
var Schemas = map[string]*openapi.Schema{
	"Classification": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":          {Type: "string", Format: "uuid"},
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"priority":    {Type: "integer"},
			"threshold":   {Type: "number", Minimum: ptr(0.0), Maximum: ptr(1.0)},
			"created_at":  {Type: "string", Format: "date-time"},
			"updated_at":  {Type: "string", Format: "date-time"},
		},
	},
	"ClassificationCommand": {
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*openapi.Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"priority":    {Type: "integer", Default: 0},
			"threshold":   {Type: "number", Default: defaultThreshold},
		},
	},
	"ClassificationPage": openapi.PageOf("Classification"),
	"Pattern": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":                {Type: "string", Format: "uuid"},
			"classification_id": {Type: "string", Format: "uuid"},
			"pattern":           {Type: "string"},
			"flags":             {Type: "string"},
		},
	},
	"PatternCommand": {
		Type:     "object",
		Required: []string{"pattern"},
		Properties: map[string]*openapi.Schema{
			"pattern": {Type: "string"},
			"flags":   {Type: "string", Description: "Any of i, m, s, x"},
		},
	},
	"Definition": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":                {Type: "string", Format: "uuid"},
			"classification_id": {Type: "string", Format: "uuid"},
			"key":               {Type: "string"},
			"label":             {Type: "string"},
			"type":              dataTypeSchema(),
			"rule_type":         ruleTypeSchema(),
			"expression":        {Type: "string"},
			"required":          {Type: "boolean"},
		},
	},
	"DefinitionCommand": {
		Type:     "object",
		Required: []string{"key", "type", "rule_type", "expression"},
		Properties: map[string]*openapi.Schema{
			"key":        {Type: "string"},
			"label":      {Type: "string"},
			"type":       dataTypeSchema(),
			"rule_type":  ruleTypeSchema(),
			"expression": {Type: "string"},
			"required":   {Type: "boolean"},
		},
	},
	"ImportResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"classifications": {Type: "integer"},
			"patterns":        {Type: "integer"},
			"data_points":     {Type: "integer"},
		},
	},
}

func dataTypeSchema() *openapi.Schema {
	return &openapi.Schema{
		Type: "string",
		Enum: []any{TypeString, TypeNumber, TypeDate, TypeBoolean, TypeCurrency},
	}
}

func ruleTypeSchema() *openapi.Schema {
	return &openapi.Schema{
		Type: "string",
		Enum: []any{RuleRegex, RuleJSONPath, RuleXPath},
	}
}

func ptr[T any](v T) *T { return &v }
