// Package extraction evaluates data point definitions against document text
// and coerces matched values to their declared types.
//
// Evaluation is total: every definition yields an Outcome and a faulty rule
// never aborts the caller.
package extraction

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/rules"
)

// DefaultConfidence is assigned to matched values when no finer signal exists.
const DefaultConfidence = 0.9

// Extractor evaluates definitions with a shared regex budget and confidence.
type Extractor struct {
	timeout    time.Duration
	confidence float64
}

// New creates an Extractor. A non-positive confidence uses DefaultConfidence.
func New(timeout time.Duration, confidence float64) *Extractor {
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	return &Extractor{timeout: timeout, confidence: confidence}
}

// Extract evaluates def against ctx.
func (e *Extractor) Extract(def classifications.Definition, ctx Context) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = InvalidRule{Reason: fmt.Sprintf("evaluation panic: %v", r)}
		}
	}()

	switch def.RuleType {
	case classifications.RuleRegex:
		return e.regex(def.Expression, ctx)
	case classifications.RuleJSONPath:
		return e.jsonPath(def.Expression, ctx)
	case classifications.RuleXPath:
		return e.xpath(def.Expression, ctx)
	default:
		return InvalidRule{Reason: fmt.Sprintf("unsupported rule type %q", def.RuleType)}
	}
}

func (e *Extractor) regex(expr string, ctx Context) Outcome {
	if ctx.Text == "" {
		return NoMatch{}
	}

	re, err := rules.Compile(expr, "", e.timeout)
	if err != nil {
		return InvalidRule{Reason: err.Error()}
	}

	m, err := re.FindStringMatch(ctx.Text)
	if err != nil || m == nil {
		return NoMatch{}
	}

	raw := m.String()
	if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
		raw = g.String()
	}

	// Inclusive end; an empty match ends one before it starts.
	start := m.Index
	end := m.Index + m.Length - 1

	v := Value{
		Raw:        raw,
		Confidence: e.confidence,
		SpanStart:  &start,
		SpanEnd:    &end,
	}

	if strings.ContainsRune(ctx.Text, '\f') {
		page := pageAt([]rune(ctx.Text), start)
		v.Page = &page
	}

	return Matched{Value: v}
}

func (e *Extractor) jsonPath(expr string, ctx Context) Outcome {
	if !ctx.HasJSON() {
		return NoMatch{}
	}

	x, err := jp.ParseString(expr)
	if err != nil {
		return InvalidRule{Reason: err.Error()}
	}

	var raw string
	switch results := x.Get(ctx.json); len(results) {
	case 0:
		return NoMatch{}
	case 1:
		s, ok := stringifyJSON(results[0])
		if !ok {
			return NoMatch{}
		}
		raw = s
	default:
		raw = oj.JSON(results, &oj.Options{Sort: true})
	}

	return Matched{Value: Value{Raw: raw, Confidence: e.confidence}}
}

func (e *Extractor) xpath(expr string, ctx Context) Outcome {
	if !ctx.HasXML() {
		return NoMatch{}
	}

	x, err := xpath.Compile(expr)
	if err != nil {
		return InvalidRule{Reason: err.Error()}
	}

	var raw string
	switch v := x.Evaluate(xmlquery.CreateXPathNavigator(ctx.xml)).(type) {
	case *xpath.NodeIterator:
		if v.MoveNext() {
			raw = v.Current().Value()
		}
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		raw = strconv.FormatBool(v)
	default:
		raw = fmt.Sprint(v)
	}

	if strings.TrimSpace(raw) == "" {
		return NoMatch{}
	}

	return Matched{Value: Value{Raw: raw, Confidence: e.confidence}}
}

func stringifyJSON(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any, map[string]any:
		return oj.JSON(t, &oj.Options{Sort: true}), true
	default:
		return fmt.Sprint(t), true
	}
}

func pageAt(text []rune, offset int) int {
	page := 1
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\f' {
			page++
		}
	}
	return page
}
