package classifications

import (
	"net/url"

	"github.com/JaimeStill/docai/pkg/query"
	"github.com/JaimeStill/docai/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("priority", "Priority").
	Project("threshold", "Threshold").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var patternProjection = query.
	NewProjectionMap("public", "classification_patterns", "p").
	Project("id", "ID").
	Project("classification_id", "ClassificationID").
	Project("pattern", "Pattern").
	Project("flags", "Flags").
	Project("created_at", "CreatedAt")

var definitionProjection = query.
	NewProjectionMap("public", "data_point_definitions", "dp").
	Project("id", "ID").
	Project("classification_id", "ClassificationID").
	Project("key", "Key").
	Project("label", "Label").
	Project("data_type", "Type").
	Project("rule_type", "RuleType").
	Project("expression", "Expression").
	Project("required", "Required").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "Name"}

// Candidates are loaded in ascending id order. Ids are UUIDv7, so this is creation order.
var candidateSort = query.SortField{Field: "ID"}

var childSort = query.SortField{Field: "ID"}

// Filters contains optional filtering criteria for classification queries.
// Name uses case-insensitive contains matching.
type Filters struct {
	Name *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Priority,
		&c.Threshold,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func scanPattern(s repository.Scanner) (Pattern, error) {
	var p Pattern
	err := s.Scan(
		&p.ID,
		&p.ClassificationID,
		&p.Pattern,
		&p.Flags,
		&p.CreatedAt,
	)
	return p, err
}

func scanDefinition(s repository.Scanner) (Definition, error) {
	var d Definition
	err := s.Scan(
		&d.ID,
		&d.ClassificationID,
		&d.Key,
		&d.Label,
		&d.Type,
		&d.RuleType,
		&d.Expression,
		&d.Required,
		&d.CreatedAt,
	)
	return d, err
}
