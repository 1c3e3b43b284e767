// Package classifications implements the rule configuration domain.
// It stores classifications, their match patterns, and their data point
// definitions, and serves that configuration to the processing pipeline.
package classifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UndefinedName is the name of the fallback classification. It always exists,
// and cannot be renamed or deleted.
const UndefinedName = "undefined"

// Classification is a document category with a tie-break priority and
// a minimum acceptable score.
type Classification struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Priority    int       `json:"priority"`
	Threshold   float64   `json:"threshold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Protected reports whether c is the fallback classification.
func (c Classification) Protected() bool {
	return c.Name == UndefinedName
}

// Pattern is a regular expression that signals membership in a classification.
type Pattern struct {
	ID               uuid.UUID `json:"id"`
	ClassificationID uuid.UUID `json:"classification_id"`
	Pattern          string    `json:"pattern"`
	Flags            *string   `json:"flags"`
	CreatedAt        time.Time `json:"created_at"`
}

// DataType is the declared type of an extracted value.
type DataType string

const (
	TypeString   DataType = "string"
	TypeNumber   DataType = "number"
	TypeDate     DataType = "date"
	TypeBoolean  DataType = "boolean"
	TypeCurrency DataType = "currency"
)

// Valid reports whether t is a known data type.
func (t DataType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeDate, TypeBoolean, TypeCurrency:
		return true
	}
	return false
}

// RuleType selects how a data point expression is evaluated.
type RuleType string

const (
	RuleRegex    RuleType = "regex"
	RuleJSONPath RuleType = "json_path"
	RuleXPath    RuleType = "xpath"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RuleRegex, RuleJSONPath, RuleXPath:
		return true
	}
	return false
}

// Definition describes one value to extract from documents of a classification.
// Required is advisory and does not affect extraction.
type Definition struct {
	ID               uuid.UUID `json:"id"`
	ClassificationID uuid.UUID `json:"classification_id"`
	Key              string    `json:"key"`
	Label            *string   `json:"label"`
	Type             DataType  `json:"type"`
	RuleType         RuleType  `json:"rule_type"`
	Expression       string    `json:"expression"`
	Required         bool      `json:"required"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to create or update a classification.
// Threshold defaults to 0.5 when omitted.
type CreateCommand struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Priority    int      `json:"priority"`
	Threshold   *float64 `json:"threshold"`
}

// UpdateCommand shares the shape of CreateCommand.
type UpdateCommand = CreateCommand

const defaultThreshold = 0.5

func (c CreateCommand) threshold() float64 {
	if c.Threshold == nil {
		return defaultThreshold
	}
	return *c.Threshold
}

func (c CreateCommand) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if t := c.threshold(); t < 0 || t > 1 {
		return fmt.Errorf("%w: threshold must be within [0,1]", ErrInvalid)
	}
	return nil
}

// PatternCommand carries the data needed to add a pattern.
type PatternCommand struct {
	Pattern string  `json:"pattern"`
	Flags   *string `json:"flags"`
}

func (c PatternCommand) validate() error {
	if strings.TrimSpace(c.Pattern) == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalid)
	}
	return nil
}

// DefinitionCommand carries the data needed to add a data point definition.
type DefinitionCommand struct {
	Key        string   `json:"key"`
	Label      *string  `json:"label"`
	Type       DataType `json:"type"`
	RuleType   RuleType `json:"rule_type"`
	Expression string   `json:"expression"`
	Required   bool     `json:"required"`
}

func (c DefinitionCommand) validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalid)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalid, c.Type)
	}
	if !c.RuleType.Valid() {
		return fmt.Errorf("%w: unknown rule_type %q", ErrInvalid, c.RuleType)
	}
	if strings.TrimSpace(c.Expression) == "" {
		return fmt.Errorf("%w: expression is required", ErrInvalid)
	}
	return nil
}
