package extraction_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/extraction"
)

func definition(rule classifications.RuleType, expr string) classifications.Definition {
	id, _ := uuid.NewV7()
	return classifications.Definition{
		ID:         id,
		Key:        "value",
		Type:       classifications.TypeString,
		RuleType:   rule,
		Expression: expr,
	}
}

func newExtractor() *extraction.Extractor {
	return extraction.New(time.Second, 0)
}

func matched(t *testing.T, out extraction.Outcome) extraction.Value {
	t.Helper()
	m, ok := out.(extraction.Matched)
	if !ok {
		t.Fatalf("outcome = %#v, want Matched", out)
	}
	return m.Value
}

func TestExtractRegex(t *testing.T) {
	e := newExtractor()

	t.Run("capture group", func(t *testing.T) {
		ctx := extraction.NewContext("Invoice #4521 due")
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `Invoice #(\d+)`), ctx))

		if v.Raw != "4521" {
			t.Errorf("raw = %q, want 4521", v.Raw)
		}
		if v.Confidence != extraction.DefaultConfidence {
			t.Errorf("confidence = %v, want %v", v.Confidence, extraction.DefaultConfidence)
		}
		if v.SpanStart == nil || *v.SpanStart != 0 {
			t.Errorf("span start = %v, want 0", v.SpanStart)
		}
		if v.SpanEnd == nil || *v.SpanEnd != 12 {
			t.Errorf("span end = %v, want 12", v.SpanEnd)
		}
		if v.Page != nil {
			t.Errorf("page = %v, want nil without page breaks", *v.Page)
		}
	})

	t.Run("whole match without group", func(t *testing.T) {
		ctx := extraction.NewContext("Total: 99")
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `\d+`), ctx))
		if v.Raw != "99" {
			t.Errorf("raw = %q, want 99", v.Raw)
		}
	})

	t.Run("optional group not participating", func(t *testing.T) {
		ctx := extraction.NewContext("ref ABC")
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `ref (\d+)?`), ctx))
		if v.Raw != "ref " {
			t.Errorf("raw = %q, want %q", v.Raw, "ref ")
		}
	})

	t.Run("rune offsets", func(t *testing.T) {
		ctx := extraction.NewContext("héllo wörld 42")
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `\d+`), ctx))
		if *v.SpanStart != 12 || *v.SpanEnd != 13 {
			t.Errorf("span = %d..%d, want 12..13", *v.SpanStart, *v.SpanEnd)
		}
	})

	t.Run("page from form feeds", func(t *testing.T) {
		ctx := extraction.NewContext("page one\fpage two\fTotal: 7")
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `Total: (\d)`), ctx))
		if v.Page == nil || *v.Page != 3 {
			t.Errorf("page = %v, want 3", v.Page)
		}
	})

	t.Run("multiline anchors", func(t *testing.T) {
		ctx := extraction.NewContext("header\nDate: 2024-03-01")
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `^Date: (.+)$`), ctx))
		if v.Raw != "2024-03-01" {
			t.Errorf("raw = %q, want 2024-03-01", v.Raw)
		}
	})

	t.Run("empty match ends before start", func(t *testing.T) {
		v := matched(t, e.Extract(definition(classifications.RuleRegex, `x*`), extraction.NewContext("abc")))
		if v.Raw != "" {
			t.Errorf("raw = %q, want empty", v.Raw)
		}
		if *v.SpanStart != 0 || *v.SpanEnd != -1 {
			t.Errorf("span = %d..%d, want 0..-1", *v.SpanStart, *v.SpanEnd)
		}
	})

	t.Run("no match", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleRegex, `Invoice`), extraction.NewContext("receipt"))
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleRegex, `.*`), extraction.NewContext(""))
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("malformed expression", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleRegex, `(unclosed`), extraction.NewContext("text"))
		if _, ok := out.(extraction.InvalidRule); !ok {
			t.Errorf("outcome = %#v, want InvalidRule", out)
		}
	})
}

func TestExtractJSONPath(t *testing.T) {
	e := newExtractor()
	ctx := extraction.NewContext(`{"invoice":{"number":"INV-7","total":1234.5,"paid":true,"lines":[{"sku":"a"}],"note":null,"memo":"","tags":[]}}`)

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"string", "$.invoice.number", "INV-7"},
		{"number", "$.invoice.total", "1234.5"},
		{"boolean", "$.invoice.paid", "true"},
		{"structure", "$.invoice.lines", `[{"sku":"a"}]`},
		{"nested index", "$.invoice.lines[0].sku", "a"},
		{"empty string", "$.invoice.memo", ""},
		{"empty structure", "$.invoice.tags", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := matched(t, e.Extract(definition(classifications.RuleJSONPath, tt.expr), ctx))
			if v.Raw != tt.want {
				t.Errorf("raw = %q, want %q", v.Raw, tt.want)
			}
		})
	}

	t.Run("several results", func(t *testing.T) {
		items := extraction.NewContext(`{"items":[{"name":"a"},{"name":"b"}]}`)
		for _, expr := range []string{"$.items[*].name", "$..name"} {
			v := matched(t, e.Extract(definition(classifications.RuleJSONPath, expr), items))
			if v.Raw != `["a","b"]` {
				t.Errorf("%s: raw = %q, want %q", expr, v.Raw, `["a","b"]`)
			}
		}
	})

	t.Run("null is no match", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleJSONPath, "$.invoice.note"), ctx)
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("missing path is no match", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleJSONPath, "$.missing"), ctx)
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("absent json context", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleJSONPath, "$.a"), extraction.NewContext("plain text"))
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("malformed expression", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleJSONPath, "$.[[["), ctx)
		if _, ok := out.(extraction.Matched); ok {
			t.Errorf("outcome = %#v, want non-Matched", out)
		}
	})
}

func TestExtractXPath(t *testing.T) {
	e := newExtractor()
	ctx := extraction.NewContext(`<invoice><number>INV-9</number><total>10</total><empty> </empty></invoice>`)

	t.Run("node value", func(t *testing.T) {
		v := matched(t, e.Extract(definition(classifications.RuleXPath, "/invoice/number"), ctx))
		if v.Raw != "INV-9" {
			t.Errorf("raw = %q, want INV-9", v.Raw)
		}
	})

	t.Run("scalar result", func(t *testing.T) {
		v := matched(t, e.Extract(definition(classifications.RuleXPath, "sum(/invoice/total)"), ctx))
		if v.Raw != "10" {
			t.Errorf("raw = %q, want 10", v.Raw)
		}
	})

	t.Run("blank is no match", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleXPath, "/invoice/empty"), ctx)
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("absent xml context", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleXPath, "/a"), extraction.NewContext("plain text"))
		if _, ok := out.(extraction.NoMatch); !ok {
			t.Errorf("outcome = %#v, want NoMatch", out)
		}
	})

	t.Run("malformed expression", func(t *testing.T) {
		out := e.Extract(definition(classifications.RuleXPath, "/invoice[["), ctx)
		if _, ok := out.(extraction.InvalidRule); !ok {
			t.Errorf("outcome = %#v, want InvalidRule", out)
		}
	})
}

func TestExtractNeverPanics(t *testing.T) {
	e := newExtractor()
	inputs := []string{"", "plain", `{"a":1}`, "<a>1</a>", "\f\f", "<broken"}
	exprs := []string{"", "(", "$..", "//", "[", "$[?(@.a ==", "count(", "\\"}
	kinds := []classifications.RuleType{
		classifications.RuleRegex,
		classifications.RuleJSONPath,
		classifications.RuleXPath,
		classifications.RuleType("unknown"),
	}

	for _, in := range inputs {
		ctx := extraction.NewContext(in)
		for _, expr := range exprs {
			for _, kind := range kinds {
				if out := e.Extract(definition(kind, expr), ctx); out == nil {
					t.Errorf("nil outcome for %s %q on %q", kind, expr, in)
				}
			}
		}
	}
}

func TestNewContext(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		hasJSON bool
		hasXML  bool
	}{
		{"plain", "Invoice #1", false, false},
		{"json", `{"a":1}`, true, false},
		{"xml", `<a>1</a>`, false, true},
		{"broken xml", `<a><b></a>`, false, false},
		{"xml with prolog", "<?xml version=\"1.0\"?>\n<!-- c -->\n<a>1</a>\n", false, true},
		{"trailing text", `<a><b>1</b></a> trailing`, false, false},
		{"two roots", `<a>1</a><b>2</b>`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := extraction.NewContext(tt.text)
			if ctx.HasJSON() != tt.hasJSON {
				t.Errorf("HasJSON() = %v, want %v", ctx.HasJSON(), tt.hasJSON)
			}
			if ctx.HasXML() != tt.hasXML {
				t.Errorf("HasXML() = %v, want %v", ctx.HasXML(), tt.hasXML)
			}
		})
	}
}
