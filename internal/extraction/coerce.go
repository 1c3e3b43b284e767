package extraction

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/docai/internal/classifications"
)

// DateLayouts are tried in order when coercing date values.
var DateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02 Jan 2006",
	"02-01-2006",
}

var truthy = map[string]bool{
	"true": true,
	"yes":  true,
	"1":    true,
}

// DataPoint is a typed value extracted for one definition.
// Only the field matching Type is populated; a value that fails to coerce
// leaves its typed field empty while Raw is kept.
type DataPoint struct {
	DefinitionID     uuid.UUID                `json:"definition_id"`
	ClassificationID uuid.UUID                `json:"classification_id"`
	Key              string                   `json:"key"`
	Label            *string                  `json:"label,omitempty"`
	Type             classifications.DataType `json:"type"`
	Raw              string                   `json:"raw"`
	ValueString      *string                  `json:"value_string,omitempty"`
	ValueNumber      decimal.NullDecimal      `json:"value_number"`
	ValueDate        *time.Time               `json:"value_date,omitempty"`
	Confidence       float64                  `json:"confidence"`
	Page             *int                     `json:"page,omitempty"`
	SpanStart        *int                     `json:"span_start,omitempty"`
	SpanEnd          *int                     `json:"span_end,omitempty"`
}

// Coerce converts a matched value into a DataPoint of the definition's type.
func Coerce(def classifications.Definition, v Value) DataPoint {
	dp := DataPoint{
		DefinitionID:     def.ID,
		ClassificationID: def.ClassificationID,
		Key:              def.Key,
		Label:            def.Label,
		Type:             def.Type,
		Raw:              v.Raw,
		Confidence:       v.Confidence,
		Page:             v.Page,
		SpanStart:        v.SpanStart,
		SpanEnd:          v.SpanEnd,
	}

	switch def.Type {
	case classifications.TypeNumber:
		dp.ValueNumber = ParseNumber(v.Raw)
	case classifications.TypeCurrency:
		dp.ValueNumber = ParseCurrency(v.Raw)
	case classifications.TypeDate:
		if d, ok := ParseDate(v.Raw); ok {
			dp.ValueDate = &d
		}
	case classifications.TypeBoolean:
		s := ParseBoolean(v.Raw)
		dp.ValueString = &s
	default:
		s := v.Raw
		dp.ValueString = &s
	}

	return dp
}

// ParseNumber parses raw as a decimal without trimming.
func ParseNumber(raw string) decimal.NullDecimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseCurrency keeps only digits and dots before parsing.
func ParseCurrency(raw string) decimal.NullDecimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	return ParseNumber(cleaned)
}

// ParseDate returns the first successful parse across DateLayouts.
// A day of month between 1 and 31 that overflows its month is clamped to
// the month's last day, so 02/30/2024 yields 2024-02-29.
func ParseDate(raw string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
		if t, ok := clampDay(layout, raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// clampDay retries raw with its day field set to 01 and, when that parses,
// applies the original day capped at the month's length. Every layout in
// DateLayouts places the day at a fixed offset.
func clampDay(layout, raw string) (time.Time, bool) {
	i := strings.Index(layout, "02")
	if i < 0 || len(raw) < i+2 {
		return time.Time{}, false
	}

	digits := raw[i : i+2]
	if strings.Trim(digits, "0123456789") != "" {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(digits)
	if day < 1 || day > 31 {
		return time.Time{}, false
	}

	first, err := time.Parse(layout, raw[:i]+"01"+raw[i+2:])
	if err != nil {
		return time.Time{}, false
	}

	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(day, last)-1), true
}

// ParseBoolean maps raw to "true" or "false".
func ParseBoolean(raw string) string {
	if truthy[strings.ToLower(raw)] {
		return "true"
	}
	return "false"
}
