package classifications

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Bundle is a portable YAML document describing rule configuration.
// Importing a bundle upserts classifications by name, replaces their patterns,
// and upserts their data point definitions by key.
type Bundle struct {
	Classifications []BundleClassification `yaml:"classifications"`
}

// BundleClassification is one classification entry in a Bundle.
type BundleClassification struct {
	Name        string             `yaml:"name"`
	Description *string            `yaml:"description,omitempty"`
	Priority    int                `yaml:"priority"`
	Threshold   *float64           `yaml:"threshold,omitempty"`
	Patterns    []BundlePattern    `yaml:"patterns,omitempty"`
	DataPoints  []BundleDefinition `yaml:"data_points,omitempty"`
}

// BundlePattern is a pattern entry in a Bundle.
type BundlePattern struct {
	Pattern string  `yaml:"pattern"`
	Flags   *string `yaml:"flags,omitempty"`
}

// BundleDefinition is a data point definition entry in a Bundle.
type BundleDefinition struct {
	Key        string   `yaml:"key"`
	Label      *string  `yaml:"label,omitempty"`
	Type       DataType `yaml:"type"`
	RuleType   RuleType `yaml:"rule_type"`
	Expression string   `yaml:"expression"`
	Required   bool     `yaml:"required,omitempty"`
}

// ImportResult summarizes the changes applied by an import.
type ImportResult struct {
	Classifications int `json:"classifications"`
	Patterns        int `json:"patterns"`
	DataPoints      int `json:"data_points"`
}

// ParseBundle decodes and validates a YAML bundle.
// Unknown fields are rejected so that typos surface instead of being ignored.
func ParseBundle(r io.Reader) (*Bundle, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty bundle", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	return &b, nil
}

// Encode writes the bundle as YAML.
func (b *Bundle) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return err
	}
	return enc.Close()
}

func (b *Bundle) validate() error {
	names := make(map[string]struct{}, len(b.Classifications))

	for i, c := range b.Classifications {
		if err := c.command().validate(); err != nil {
			return fmt.Errorf("classifications[%d]: %w", i, err)
		}
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("%w: classification %q listed twice", ErrInvalid, c.Name)
		}
		names[c.Name] = struct{}{}

		for j, p := range c.Patterns {
			if err := p.command().validate(); err != nil {
				return fmt.Errorf("%s.patterns[%d]: %w", c.Name, j, err)
			}
		}

		keys := make(map[string]struct{}, len(c.DataPoints))
		for j, d := range c.DataPoints {
			if err := d.command().validate(); err != nil {
				return fmt.Errorf("%s.data_points[%d]: %w", c.Name, j, err)
			}
			if _, dup := keys[d.Key]; dup {
				return fmt.Errorf("%w: %s data point %q listed twice", ErrInvalid, c.Name, d.Key)
			}
			keys[d.Key] = struct{}{}
		}
	}

	return nil
}

func (c BundleClassification) command() CreateCommand {
	return CreateCommand{
		Name:        c.Name,
		Description: c.Description,
		Priority:    c.Priority,
		Threshold:   c.Threshold,
	}
}

func (p BundlePattern) command() PatternCommand {
	return PatternCommand{Pattern: p.Pattern, Flags: p.Flags}
}

func (d BundleDefinition) command() DefinitionCommand {
	return DefinitionCommand{
		Key:        d.Key,
		Label:      d.Label,
		Type:       d.Type,
		RuleType:   d.RuleType,
		Expression: d.Expression,
		Required:   d.Required,
	}
}
