package openapi

import "maps"

// NewComponents creates Components with shared schemas and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: name,-created_at"},
				},
			},
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":         errorResponse("Invalid request"),
			"NotFound":           errorResponse("Resource not found"),
			"Forbidden":          errorResponse("Operation not permitted on a protected resource"),
			"Conflict":           errorResponse("Resource conflict (duplicate name or invalid state)"),
			"PayloadTooLarge":    errorResponse("Request body exceeds the configured limit"),
			"Unprocessable":      errorResponse("Document could not be processed"),
			"ServiceUnavailable": errorResponse("Processing queue is full or shutting down"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

func errorResponse(description string) *Response {
	return ResponseJSON(description, "Error")
}
