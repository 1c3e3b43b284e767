package extraction

// Outcome is the result of evaluating one data point definition.
// It is one of Matched, NoMatch, or InvalidRule.
type Outcome interface {
	outcome()
}

// Value is a matched raw value with its location metadata.
// Offsets are rune positions and SpanEnd is inclusive.
type Value struct {
	Raw        string  `json:"raw"`
	Confidence float64 `json:"confidence"`
	Page       *int    `json:"page,omitempty"`
	SpanStart  *int    `json:"span_start,omitempty"`
	SpanEnd    *int    `json:"span_end,omitempty"`
}

// Matched carries the value produced by a rule.
type Matched struct {
	Value Value
}

// NoMatch indicates the rule evaluated cleanly but produced nothing.
type NoMatch struct{}

// InvalidRule indicates the rule could not be compiled or evaluated.
type InvalidRule struct {
	Reason string
}

func (Matched) outcome()     {}
func (NoMatch) outcome()     {}
func (InvalidRule) outcome() {}
